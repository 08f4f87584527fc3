package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gestor-go/internal/app"
	"gestor-go/internal/config"
	"gestor-go/internal/encryption"
	"gestor-go/internal/gestor"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a GestorApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "AddDocument", "ArchiveYear").
func newApp(ctx context.Context, operation string, args []string) (*app.GestorApp, error) {
	cfg, _, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewGestorApp(ctx, cfg, operation, strings.Join(args, " "))
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

func readConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// readPassphrase prompts on stderr and reads a passphrase without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

func closeApp(ctx context.Context, a *app.GestorApp) {
	if err := a.Close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}

var rootCmd = &cobra.Command{
	Use:          "gestor",
	Short:        "Document and task register with offline-first sync",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		userID, _ := cmd.Flags().GetString("user")
		if userID == "" {
			userID = uuid.New().String()
		}

		cfg := config.NewConfig(userID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("User ID:  %s\n", userID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := readConfig()
		if err != nil {
			return err
		}

		remote := cfg.Remote.Type
		if remote == "" {
			remote = "(local only)"
		}
		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("User ID:    %s\n", cfg.UserID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Database:   %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Blobs:      %s %s\n", cfg.Blobs.Type, cfg.Blobs.Root)
		fmt.Printf("Remote:     %s\n", remote)
		fmt.Printf("Encryption: %v\n", cfg.Encryption.Enabled)
		fmt.Printf("Debounce:   %s\n", cfg.Sync.Debounce())
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage archive encryption keys",
}

var keysSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Generate the key pair used to seal archived years",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := readConfig()
		if err != nil {
			return err
		}
		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			return err
		}
		if enc.IsConfigured() {
			return fmt.Errorf("keys already exist at %s", cfg.Encryption.PrivateKeyPath)
		}

		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}
		if err := enc.Setup(pass); err != nil {
			return fmt.Errorf("setting up keys: %w", err)
		}
		fmt.Printf("Keys written to %s\n", cfg.Encryption.PublicKeyPath)
		if !cfg.Encryption.Enabled {
			fmt.Println("Set encryption.enabled = true in the config to seal new archives.")
		}
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show workspace and sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "Status", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		s, err := a.Status()
		if err != nil {
			return err
		}

		fmt.Printf("User:      %s\n", s.UserID)
		fmt.Printf("Documents: %d incoming, %d outgoing\n", s.Documents, s.Outgoing)
		fmt.Printf("Tasks:     %d (%d open)\n", s.Tasks, s.PendingTasks)
		if s.SyncEnabled {
			fmt.Printf("Sync:      %s\n", s.SyncStatus)
			if s.SyncError != nil {
				fmt.Printf("           %v\n", s.SyncError)
			}
		} else {
			fmt.Println("Sync:      disabled")
		}
		if s.SaveError != nil {
			fmt.Printf("Save:      %v\n", s.SaveError)
		}
		if len(s.ArchivedYears) > 0 {
			years := make([]string, len(s.ArchivedYears))
			for i, y := range s.ArchivedYears {
				years[i] = strconv.Itoa(y)
			}
			fmt.Printf("Archived:  %s\n", strings.Join(years, ", "))
		}
		if s.BackupDue {
			fmt.Println("Backup:    due, run `gestor backup export`")
		}
		fmt.Printf("Schema:    v%d\n", s.SchemaVersion)
		return nil
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push the workspace to the remote store now",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "Sync", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		if err := a.Sync(ctx); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		fmt.Println("Synced.")
		return nil
	},
}

// doc command
var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage incoming documents",
}

var docAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register an incoming document",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		in := app.DocumentInput{}
		in.Subject, _ = f.GetString("subject")
		in.Name, _ = f.GetString("name")
		in.From, _ = f.GetString("from")
		in.Body, _ = f.GetString("body")
		in.Procedure, _ = f.GetString("procedure")
		in.DocumentNumber, _ = f.GetString("number")
		in.SentAt, _ = f.GetString("sent")
		in.Folios, _ = f.GetInt("folios")
		in.FolderID, _ = f.GetString("folder")
		support, _ := f.GetString("support")
		in.SupportType = gestor.SupportType(support)
		in.FilePath, _ = f.GetString("file")
		in.AdditionalPaths, _ = f.GetStringSlice("attach")
		in.CreateTask, _ = f.GetBool("task")

		ctx := cmd.Context()
		a, err := newApp(ctx, "AddDocument", []string{in.Subject})
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		doc, task, err := a.AddDocument(ctx, in)
		if err != nil {
			return fmt.Errorf("adding document: %w", err)
		}
		fmt.Printf("Registered %s (order %d)\n", doc.ID, doc.OrderNumber)
		if task != nil {
			fmt.Printf("Created task %s due %s\n", task.ID, task.DueDate)
		}
		return nil
	},
}

var docListCmd = &cobra.Command{
	Use:   "list",
	Short: "List incoming documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "ListDocuments", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		a.View(printDocuments)
		return nil
	},
}

var docRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete an incoming document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return removeRecord(cmd, gestor.KindIncoming, args)
	},
}

func removeRecord(cmd *cobra.Command, kind gestor.Kind, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, "Remove", args)
	if err != nil {
		return err
	}
	defer closeApp(ctx, a)

	if err := a.Remove(ctx, kind, args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

func printDocuments(ws *gestor.Workspace) {
	if len(ws.Documents) == 0 {
		fmt.Println("No documents.")
		return
	}
	for _, d := range ws.Documents {
		fmt.Printf("%s  %s  #%-3d %-30s  %s  %s\n",
			d.ID,
			d.CreatedAt.Local().Format("2006-01-02"),
			d.OrderNumber,
			d.Subject,
			d.From,
			d.FolderPath(),
		)
	}
}

// out command
var outCmd = &cobra.Command{
	Use:   "out",
	Short: "Manage outgoing documents",
}

var outAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register an outgoing document",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := app.OutgoingInput{NewOutgoingDocument: outgoingFromFlags(cmd)}
		in.FilePath, _ = cmd.Flags().GetString("file")

		ctx := cmd.Context()
		a, err := newApp(ctx, "AddOutgoing", []string{in.Subject})
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		d, err := a.AddOutgoing(ctx, in)
		if err != nil {
			return fmt.Errorf("adding outgoing document: %w", err)
		}
		fmt.Printf("Registered %s\n", d.ID)
		return nil
	},
}

var outListCmd = &cobra.Command{
	Use:   "list",
	Short: "List outgoing documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "ListOutgoing", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		a.View(printOutgoing)
		return nil
	},
}

var outRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete an outgoing document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return removeRecord(cmd, gestor.KindOutgoing, args)
	},
}

func outgoingFromFlags(cmd *cobra.Command) gestor.NewOutgoingDocument {
	f := cmd.Flags()
	var out gestor.NewOutgoingDocument
	out.To, _ = f.GetString("to")
	out.Subject, _ = f.GetString("subject")
	out.Body, _ = f.GetString("body")
	out.DocumentNumber, _ = f.GetString("number")
	out.ReceivedBy, _ = f.GetString("received-by")
	out.SentAt, _ = f.GetString("sent")
	out.Folios, _ = f.GetInt("folios")
	out.FolderID, _ = f.GetString("folder")
	support, _ := f.GetString("support")
	out.SupportType = gestor.SupportType(support)
	return out
}

func addOutgoingFlags(cmd *cobra.Command) {
	cmd.Flags().String("to", "", "Recipient")
	cmd.Flags().String("subject", "", "Subject")
	cmd.Flags().String("body", "", "Body or summary")
	cmd.Flags().String("number", "", "Document number")
	cmd.Flags().String("received-by", "", "Who received it")
	cmd.Flags().String("sent", "", "Date sent (YYYY-MM-DD)")
	cmd.Flags().Int("folios", 0, "Number of pages")
	cmd.Flags().String("folder", "", "Destination folder id")
	cmd.Flags().String("support", "", "Support type: papel, electronico or otro")
}

func printOutgoing(ws *gestor.Workspace) {
	if len(ws.OutgoingDocuments) == 0 {
		fmt.Println("No outgoing documents.")
		return
	}
	for _, d := range ws.OutgoingDocuments {
		fmt.Printf("%s  %s  %-30s  %s  %s\n",
			d.ID,
			d.CreatedAt.Local().Format("2006-01-02"),
			d.Subject,
			d.To,
			d.FolderPath(),
		)
	}
}

// task command
var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add DESCRIPTION",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		in := gestor.NewTask{Description: args[0]}
		in.DueDate, _ = f.GetString("due")
		in.RelatedDocumentID, _ = f.GetString("doc")
		priority, _ := f.GetString("priority")
		in.Priority = gestor.Priority(priority)
		in.Notes, _ = f.GetString("notes")
		in.Reminder, _ = f.GetBool("reminder")

		ctx := cmd.Context()
		a, err := newApp(ctx, "AddTask", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		t, err := a.AddTask(ctx, in)
		if err != nil {
			return fmt.Errorf("adding task: %w", err)
		}
		fmt.Printf("Created task %s\n", t.ID)
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "ListTasks", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		a.View(printTasks)
		return nil
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change task status, priority, due date or notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		var upd gestor.TaskUpdate
		if f.Changed("status") {
			v, _ := f.GetString("status")
			s := gestor.TaskStatus(v)
			upd.Status = &s
		}
		if f.Changed("priority") {
			v, _ := f.GetString("priority")
			p := gestor.Priority(v)
			upd.Priority = &p
		}
		if f.Changed("due") {
			v, _ := f.GetString("due")
			upd.DueDate = &v
		}
		if f.Changed("notes") {
			v, _ := f.GetString("notes")
			upd.Notes = &v
		}
		if f.Changed("reminder") {
			v, _ := f.GetBool("reminder")
			upd.Reminder = &v
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, "UpdateTask", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		if err := a.UpdateTask(ctx, args[0], upd); err != nil {
			return fmt.Errorf("updating task: %w", err)
		}
		fmt.Printf("Updated %s\n", args[0])
		return nil
	},
}

var taskCompleteCmd = &cobra.Command{
	Use:   "complete ID",
	Short: "Complete a task and register the outgoing document with its result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := outgoingFromFlags(cmd)
		result, _ := cmd.Flags().GetString("result")

		ctx := cmd.Context()
		a, err := newApp(ctx, "CompleteTask", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		d, err := a.CompleteTask(ctx, args[0], result, out)
		if err != nil {
			return fmt.Errorf("completing task: %w", err)
		}
		fmt.Printf("Completed %s, registered %s\n", args[0], d.ID)
		return nil
	},
}

var taskRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return removeRecord(cmd, gestor.KindTask, args)
	},
}

func printTasks(ws *gestor.Workspace) {
	if len(ws.Tasks) == 0 {
		fmt.Println("No tasks.")
		return
	}
	for _, t := range ws.Tasks {
		fmt.Printf("%s  %-11s  %-5s  %-10s  %s\n", t.ID, t.Status, t.Priority, t.DueDate, t.Description)
	}
}

// folder command
var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage destination folders",
}

var folderAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a folder (a root ámbito without --parent)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, _ := cmd.Flags().GetString("parent")

		ctx := cmd.Context()
		a, err := newApp(ctx, "AddFolder", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		f, err := a.AddFolder(ctx, args[0], parent)
		if err != nil {
			return fmt.Errorf("adding folder: %w", err)
		}
		fmt.Printf("Created folder %s\n", f.ID)
		return nil
	},
}

var folderRenameCmd = &cobra.Command{
	Use:   "rename ID NAME",
	Short: "Rename a folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "RenameFolder", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		if err := a.RenameFolder(ctx, args[0], args[1]); err != nil {
			return fmt.Errorf("renaming folder: %w", err)
		}
		fmt.Printf("Renamed %s\n", args[0])
		return nil
	},
}

var folderRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a folder without subfolders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "RemoveFolder", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		if err := a.RemoveFolder(ctx, args[0]); err != nil {
			return fmt.Errorf("deleting folder: %w", err)
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var folderListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the folder tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "ListFolders", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		a.View(func(ws *gestor.Workspace) { printFolders(ws.Folders, 0) })
		return nil
	},
}

func printFolders(folders []*gestor.Folder, depth int) {
	for _, f := range folders {
		fmt.Printf("%s%s  (%s)\n", strings.Repeat("  ", depth), f.Name, f.ID)
		printFolders(f.Children, depth+1)
	}
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or import a full backup",
}

var backupExportCmd = &cobra.Command{
	Use:   "export [DIR]",
	Short: "Write all records and attachments to a .zip file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, "ExportBackup", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		path, err := a.ExportBackup(ctx, dir, encrypt)
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Printf("Backup written to %s\n", path)
		return nil
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace all current data with a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("import replaces all current data: pass --yes to confirm")
		}
		var pass string
		if app.BackupEncrypted(args[0]) {
			var err error
			if pass, err = readPassphrase("Passphrase: "); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, "ImportBackup", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		if err := a.ImportBackup(ctx, args[0], pass); err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Println("Backup restored.")
		return nil
	},
}

// archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Yearly roll-off and archived years",
}

var archiveYearCmd = &cobra.Command{
	Use:   "year",
	Short: "Archive the current year and start a fresh workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("archiving removes every record from the workspace: pass --yes to confirm")
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, "ArchiveYear", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		year, err := a.ArchiveYear(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Archived %d\n", year)
		return nil
	},
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived years",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "ListArchives", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		years, err := a.ListArchives()
		if err != nil {
			return err
		}
		if len(years) == 0 {
			fmt.Println("No archived years.")
			return nil
		}
		for _, y := range years {
			fmt.Println(y)
		}
		return nil
	},
}

var archiveViewCmd = &cobra.Command{
	Use:   "view YEAR",
	Short: "Show an archived year read-only",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid year %q", args[0])
		}
		extract, _ := cmd.Flags().GetString("extract")

		ctx := cmd.Context()
		a, err := newApp(ctx, "ViewArchive", args)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		encrypted, err := a.ArchiveEncrypted(year)
		if err != nil {
			return err
		}
		var pass string
		if encrypted {
			if pass, err = readPassphrase("Passphrase: "); err != nil {
				return err
			}
		}

		return a.ViewArchive(ctx, year, pass, func(ws *gestor.Workspace) error {
			fmt.Printf("Archived year %d (read-only)\n\n", year)
			printDocuments(ws)
			fmt.Println()
			printOutgoing(ws)
			fmt.Println()
			printTasks(ws)
			if extract == "" {
				return nil
			}
			var total int
			for _, rec := range ws.Records() {
				written, err := a.SaveAttachments(filepath.Join(extract, rec.RecordID()), rec)
				if err != nil {
					return err
				}
				total += len(written)
			}
			fmt.Printf("\nExtracted %d file(s) to %s\n", total, extract)
			return nil
		})
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().String("user", "", "User id (default: a new UUID)")
	configCmd.AddCommand(configListCmd)

	keysCmd.AddCommand(keysSetupCmd)

	// doc subcommands
	docCmd.AddCommand(docAddCmd, docListCmd, docRmCmd)
	docAddCmd.Flags().String("subject", "", "Subject (required)")
	docAddCmd.Flags().String("name", "", "Display name (default: the file name)")
	docAddCmd.Flags().String("from", "", "Sender")
	docAddCmd.Flags().String("body", "", "Body or summary")
	docAddCmd.Flags().String("procedure", "", "Procedure to follow")
	docAddCmd.Flags().String("number", "", "Document number")
	docAddCmd.Flags().String("sent", "", "Date sent (YYYY-MM-DD)")
	docAddCmd.Flags().Int("folios", 0, "Number of pages")
	docAddCmd.Flags().String("folder", "", "Destination folder id")
	docAddCmd.Flags().String("support", "", "Support type: papel, electronico or otro")
	docAddCmd.Flags().StringP("file", "f", "", "Main file")
	docAddCmd.Flags().StringSliceP("attach", "a", nil, "Additional file or directory (repeatable)")
	docAddCmd.Flags().Bool("task", false, "Also create a follow-up task")

	// out subcommands
	outCmd.AddCommand(outAddCmd, outListCmd, outRmCmd)
	addOutgoingFlags(outAddCmd)
	outAddCmd.Flags().StringP("file", "f", "", "File sent")

	// task subcommands
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskUpdateCmd, taskCompleteCmd, taskRmCmd)
	taskAddCmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	taskAddCmd.Flags().String("doc", "", "Related incoming document id")
	taskAddCmd.Flags().String("priority", "", "alta, media or baja")
	taskAddCmd.Flags().String("notes", "", "Notes")
	taskAddCmd.Flags().Bool("reminder", false, "Remind before the due date")
	taskUpdateCmd.Flags().String("status", "", "pendiente, en proceso or completada")
	taskUpdateCmd.Flags().String("priority", "", "alta, media or baja")
	taskUpdateCmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	taskUpdateCmd.Flags().String("notes", "", "Notes")
	taskUpdateCmd.Flags().Bool("reminder", false, "Remind before the due date")
	addOutgoingFlags(taskCompleteCmd)
	taskCompleteCmd.Flags().StringP("result", "r", "", "Result file")

	// folder subcommands
	folderCmd.AddCommand(folderAddCmd, folderRenameCmd, folderRmCmd, folderListCmd)
	folderAddCmd.Flags().String("parent", "", "Parent folder id")

	// backup subcommands
	backupCmd.AddCommand(backupExportCmd, backupImportCmd)
	backupExportCmd.Flags().Bool("encrypt", false, "Seal the backup with the archive key")
	backupImportCmd.Flags().Bool("yes", false, "Confirm replacing all current data")

	// archive subcommands
	archiveCmd.AddCommand(archiveYearCmd, archiveListCmd, archiveViewCmd)
	archiveYearCmd.Flags().Bool("yes", false, "Confirm the roll-off")
	archiveViewCmd.Flags().String("extract", "", "Write the year's attachments to this directory")

	// root commands
	rootCmd.AddCommand(configCmd, keysCmd, statusCmd, syncCmd, docCmd, outCmd, taskCmd, folderCmd, backupCmd, archiveCmd)
}
