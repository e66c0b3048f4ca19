package diff

import "testing"

func TestLinesDetectsAdditionAndDeletion(t *testing.T) {
	old := []byte("a\nb\nc\n")
	next := []byte("a\nx\nc\n")

	result := Lines(old, next)
	if result.Stats.Additions != 1 || result.Stats.Deletions != 1 {
		t.Fatalf("expected 1 addition and 1 deletion, got +%d -%d", result.Stats.Additions, result.Stats.Deletions)
	}
}

func TestLinesNoChange(t *testing.T) {
	content := []byte("same\ncontent\n")
	result := Lines(content, content)
	if result.Stats.Changes != 0 {
		t.Fatalf("expected no changes, got %d", result.Stats.Changes)
	}
}

func TestCoalesceMergesAdjacentHunks(t *testing.T) {
	hunks := []Hunk{
		{OldStart: 1, OldLines: 1, Lines: []Line{{Type: Deletion, Content: "old"}}},
		{OldStart: 1, OldLines: 0, Lines: []Line{{Type: Addition, Content: "new"}}},
	}
	merged := Coalesce(hunks)
	if len(merged) != 1 {
		t.Fatalf("expected coalesce to merge touching hunks into 1, got %d", len(merged))
	}
	if len(merged[0].Lines) != 2 {
		t.Fatalf("expected merged hunk to carry both lines, got %d", len(merged[0].Lines))
	}
}

func TestOpsByOldLineIndexesAdditions(t *testing.T) {
	result := Lines([]byte("a\nb\nc\n"), []byte("a\nx\nc\n"))
	ops := OpsByOldLine(Coalesce(result.Hunks))
	if len(ops) == 0 {
		t.Fatal("expected at least one op indexed by ancestor line")
	}
	for _, op := range ops {
		if op.Consumed < 1 {
			t.Fatalf("expected consumed >= 1, got %d", op.Consumed)
		}
	}
}
