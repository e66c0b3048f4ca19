// cmd/seafrepo/main.go
package main

import (
	"fmt"
	"os"

	"seafrepo/internal/commit"
	"seafrepo/internal/daemon"
	"seafrepo/internal/worktreediff"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logger, _ = zap.NewDevelopment()

var configPath string

var rootCmd = &cobra.Command{
	Use:   "seafrepo",
	Short: "seafrepo drives a content-addressed, versioned file-sync repository store",
	Long: `seafrepo is the CLI front-end to a repository engine: a content-addressed,
versioned file-synchronization store with a commit DAG, branches, a staging
index, and worktree checkout.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json (defaults to config/config.<env>.json)")
}

func initInstance() (*daemon.Instance, error) {
	in, err := daemon.Bootstrap(configPath)
	if err != nil {
		return nil, fmt.Errorf("initializing repo engine: %w", err)
	}
	return in, nil
}

func init() {
	var createCmd = &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Create a new repository",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := initInstance()
			if err != nil {
				return err
			}
			defer in.Close()

			desc := ""
			if len(args) == 2 {
				desc = args[1]
			}
			r, err := in.Manager.CreateNewRepo(args[0], desc)
			if err != nil {
				return fmt.Errorf("creating repo: %w", err)
			}
			fmt.Println("Created repository", r.ID)
			return nil
		},
	}

	var listCmd = &cobra.Command{
		Use:   "list",
		Short: "List repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := initInstance()
			if err != nil {
				return err
			}
			defer in.Close()

			repos := in.Manager.GetRepoList(0, 1000)
			if len(repos) == 0 {
				fmt.Println("No repositories")
				return nil
			}
			for _, r := range repos {
				fmt.Printf("%s  %-20s  head=%s  worktree=%s\n", r.ID, r.Name, shortID(r.HeadCommitID), r.Worktree)
			}
			return nil
		},
	}

	var deleteCmd = &cobra.Command{
		Use:   "delete <repo-id>",
		Short: "Tombstone a repository for deletion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := initInstance()
			if err != nil {
				return err
			}
			defer in.Close()

			if err := in.Manager.MarkRepoDeleted(resolveRepoID(in, args[0]), in.Events); err != nil {
				return fmt.Errorf("deleting repo: %w", err)
			}
			fmt.Println("Repository marked for deletion")
			return nil
		},
	}

	var setWorktreeCmd = &cobra.Command{
		Use:   "set-worktree <repo-id> <path>",
		Short: "Bind a repository to a worktree directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := initInstance()
			if err != nil {
				return err
			}
			defer in.Close()

			if err := in.Manager.SetRepoWorktree(resolveRepoID(in, args[0]), args[1], in.Watcher, in.Events); err != nil {
				return fmt.Errorf("setting worktree: %w", err)
			}
			fmt.Println("Worktree set to", args[1])
			return nil
		},
	}

	var unsetWorktreeCmd = &cobra.Command{
		Use:   "unset-worktree <repo-id>",
		Short: "Unbind a repository from its worktree directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := initInstance()
			if err != nil {
				return err
			}
			defer in.Close()

			if err := in.Manager.UnsetRepoWorktree(resolveRepoID(in, args[0]), in.Watcher, in.Events); err != nil {
				return fmt.Errorf("unsetting worktree: %w", err)
			}
			fmt.Println("Worktree unset")
			return nil
		},
	}

	var propertyCmd = &cobra.Command{
		Use:   "property <repo-id> <key> [value]",
		Short: "Get or set a repository property",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := initInstance()
			if err != nil {
				return err
			}
			defer in.Close()

			id := resolveRepoID(in, args[0])
			if len(args) == 2 {
				v, err := in.Manager.GetRepoProperty(id, args[1])
				if err != nil {
					return err
				}
				fmt.Println(v)
				return nil
			}
			if err := in.Manager.SetRepoProperty(id, args[1], args[2], in.Watcher, nil); err != nil {
				return fmt.Errorf("setting property: %w", err)
			}
			return nil
		},
	}

	var stageCmd = &cobra.Command{
		Use:   "stage <repo-id> [path-prefix]",
		Short: "Stage worktree changes into the index",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := initInstance()
			if err != nil {
				return err
			}
			defer in.Close()

			prefix := ""
			if len(args) == 2 {
				prefix = args[1]
			}
			id := resolveRepoID(in, args[0])
			if err := in.Manager.StagePaths(id, prefix); err != nil {
				return fmt.Errorf("staging: %w", err)
			}
			fmt.Println("Staged", prefix)
			return nil
		},
	}

	var statusCmd = &cobra.Command{
		Use:   "status <repo-id>",
		Short: "Show worktree/index/head status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := initInstance()
			if err != nil {
				return err
			}
			defer in.Close()

			changes, err := in.Manager.Status(resolveRepoID(in, args[0]))
			if err != nil {
				return fmt.Errorf("getting status: %w", err)
			}
			printChanges(changes)
			return nil
		},
	}

	var commitCmd = &cobra.Command{
		Use:   "commit <repo-id> [description]",
		Short: "Create a commit from the current index",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := initInstance()
			if err != nil {
				return err
			}
			defer in.Close()

			desc := ""
			if len(args) == 2 {
				desc = args[1]
			}
			creator, _ := cmd.Flags().GetString("creator")
			c, err := in.Manager.Commit(resolveRepoID(in, args[0]), creator, "", desc, in.Events)
			if err != nil {
				return fmt.Errorf("committing: %w", err)
			}
			fmt.Printf("Created commit %s: %s\n", shortID(c.ID), c.Description)
			return nil
		},
	}
	commitCmd.Flags().String("creator", "", "commit author")

	var checkoutCmd = &cobra.Command{
		Use:   "checkout <repo-id> <commit-id>",
		Short: "Check out commit-id into the worktree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := initInstance()
			if err != nil {
				return err
			}
			defer in.Close()

			if err := in.Manager.Checkout(resolveRepoID(in, args[0]), args[1]); err != nil {
				return fmt.Errorf("checking out: %w", err)
			}
			fmt.Println("Checked out", shortID(args[1]))
			return nil
		},
	}

	var resetCmd = &cobra.Command{
		Use:   "reset <repo-id> <commit-id>",
		Short: "Reset head and worktree to commit-id, discarding local changes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := initInstance()
			if err != nil {
				return err
			}
			defer in.Close()

			id := resolveRepoID(in, args[0])
			target, err := loadCommit(in, id, args[1])
			if err != nil {
				return err
			}
			if err := in.Manager.Reset(id, target); err != nil {
				return fmt.Errorf("resetting: %w", err)
			}
			fmt.Println("Reset to", shortID(target.ID))
			return nil
		},
	}

	var revertCmd = &cobra.Command{
		Use:   "revert <repo-id> <commit-id>",
		Short: "Create a new commit that restores worktree/index to commit-id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := initInstance()
			if err != nil {
				return err
			}
			defer in.Close()

			id := resolveRepoID(in, args[0])
			target, err := loadCommit(in, id, args[1])
			if err != nil {
				return err
			}
			c, err := in.Manager.Revert(id, target, in.Events)
			if err != nil {
				return fmt.Errorf("reverting: %w", err)
			}
			fmt.Printf("Created commit %s: %s\n", shortID(c.ID), c.Description)
			return nil
		},
	}

	var mergeCmd = &cobra.Command{
		Use:   "merge <repo-id> <branch-name> <remote-commit-id>",
		Short: "Merge remote-commit-id into the repo's head branch",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := initInstance()
			if err != nil {
				return err
			}
			defer in.Close()

			creator, _ := cmd.Flags().GetString("creator")
			outcome, err := in.Manager.MergeRemoteBranch(resolveRepoID(in, args[0]), args[1], creator, args[2])
			if err != nil {
				return fmt.Errorf("merging: %w", err)
			}
			switch {
			case outcome.FastForward:
				fmt.Println("Fast-forwarded to", shortID(outcome.NewHeadID))
			case outcome.NoOp:
				fmt.Println("Already up to date")
			case outcome.RealMerge:
				fmt.Println("Merged into", shortID(outcome.NewHeadID))
				if len(outcome.Conflicts) > 0 {
					fmt.Println("Conflicts:")
					for _, p := range outcome.Conflicts {
						color.New(color.FgRed).Println("  " + p)
					}
				}
			}
			return nil
		},
	}
	mergeCmd.Flags().String("creator", "", "merge commit author")

	var diffCmd = &cobra.Command{
		Use:   "diff <repo-id> <old-commit-id> <new-commit-id>",
		Short: "Show the change set between two commits",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := initInstance()
			if err != nil {
				return err
			}
			defer in.Close()

			changes, err := in.Manager.DiffCommits(resolveRepoID(in, args[0]), args[1], args[2])
			if err != nil {
				return fmt.Errorf("diffing commits: %w", err)
			}
			printChanges(changes)
			return nil
		},
	}

	rootCmd.AddCommand(createCmd, listCmd, deleteCmd, setWorktreeCmd, unsetWorktreeCmd, propertyCmd, stageCmd, statusCmd, commitCmd, checkoutCmd, resetCmd, revertCmd, mergeCmd, diffCmd)
}

func resolveRepoID(in *daemon.Instance, arg string) string {
	if in.Manager.RepoExists(arg) {
		return arg
	}
	if r, err := in.Manager.GetRepoPrefix(arg); err == nil {
		return r.ID
	}
	return arg
}

func loadCommit(in *daemon.Instance, repoID, commitID string) (*commit.Commit, error) {
	store, err := in.Manager.ObjectStore(repoID)
	if err != nil {
		return nil, err
	}
	return commit.NewManager(store).Load(commitID)
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[:10]
	}
	return id
}

func printChanges(changes []worktreediff.Change) {
	if len(changes) == 0 {
		fmt.Println("No changes")
		return
	}
	added := color.New(color.FgGreen)
	deleted := color.New(color.FgRed)
	modified := color.New(color.FgYellow)
	for _, c := range changes {
		switch c.Type {
		case worktreediff.Added, worktreediff.DirAdded:
			added.Printf("A  %s\n", c.Path)
		case worktreediff.Deleted, worktreediff.DirDeleted:
			deleted.Printf("D  %s\n", c.Path)
		case worktreediff.Renamed:
			fmt.Printf("R  %s -> %s\n", c.OldPath, c.Path)
		default:
			modified.Printf("M  %s\n", c.Path)
		}
	}
}

func main() {
	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
