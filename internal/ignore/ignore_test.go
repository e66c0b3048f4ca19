package ignore

import "testing"

func TestFilenameExactNames(t *testing.T) {
	cases := []string{"Thumbs.db", ".DS_Store"}
	for _, c := range cases {
		if !Filename(c) {
			t.Errorf("expected %q to be ignored", c)
		}
	}
}

func TestFilenameSuffixPatterns(t *testing.T) {
	cases := []string{"notes.txt~", "draft#", "report.tmp", "report.TMP"}
	for _, c := range cases {
		if !Filename(c) {
			t.Errorf("expected %q to be ignored", c)
		}
	}
}

func TestFilenameMSOfficeLockFiles(t *testing.T) {
	if !Filename("~$budget.xlsx") {
		t.Error("expected office lock file to be ignored")
	}
	if Filename("$budget.xlsx") {
		t.Error("did not expect a non-lock file with a similar name to be ignored")
	}
}

func TestFilenameIllegalCharacters(t *testing.T) {
	cases := []string{"a:b.txt", "a*b.txt", "a?b.txt", "a<b>.txt", "a|b.txt"}
	for _, c := range cases {
		if !Filename(c) {
			t.Errorf("expected %q to be ignored", c)
		}
	}
}

func TestFilenameControlBytes(t *testing.T) {
	if !Filename("bad\x01name.txt") {
		t.Error("expected control-byte filename to be ignored")
	}
}

func TestFilenameTrailingSpace(t *testing.T) {
	if !Filename("trailing ") {
		t.Error("expected trailing-space filename to be ignored")
	}
}

func TestFilenameAcceptsOrdinaryNames(t *testing.T) {
	cases := []string{"main.go", "README.md", "a.b.c.txt", "no-space"}
	for _, c := range cases {
		if Filename(c) {
			t.Errorf("did not expect %q to be ignored", c)
		}
	}
}

func TestPathChecksEveryComponent(t *testing.T) {
	if !Path("src/Thumbs.db") {
		t.Error("expected nested Thumbs.db to be ignored")
	}
	if Path("src/main.go") {
		t.Error("did not expect ordinary nested path to be ignored")
	}
}

func TestPathTrailingSpaceAnywhere(t *testing.T) {
	if !Path("dir /file.txt") {
		t.Error("expected trailing space in a directory component to be ignored")
	}
}
