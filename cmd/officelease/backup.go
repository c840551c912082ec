package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/backup"
	"github.com/beesaferoot/officelease/internal/drive"
)

func backupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export, import and manage backups",
	}
	cmd.AddCommand(
		backupExportCmd(a),
		backupImportCmd(a),
		backupListCmd(a),
		backupDriveCmd(a),
	)
	return cmd
}

func printCounts(out io.Writer, counts backup.Counts) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%-24s %d\n", k+":", counts[k])
	}
	fmt.Fprintf(out, "%-24s %d\n", "total:", counts.Total())
}

func backupExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a full JSON backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("out")
			return a.withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
				if path == "" {
					f, err := backup.NewLocalStore(a.cfg.Storage.BackupDir, db, a.logger).Backup(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s (%d bytes)\n", f.Path, f.Size)
					return nil
				}

				ds, err := backup.Export(ctx, db)
				if err != nil {
					return err
				}
				if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
					return err
				}
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", path, err)
				}
				if err := backup.Write(f, ds); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().String("out", "", "Output file (default: a timestamped file in the backup directory)")
	return cmd
}

func backupImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Restore a JSON backup, merging it into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
				counts, err := backup.NewLocalStore(a.cfg.Storage.BackupDir, db, a.logger).Restore(ctx, args[0])
				if err != nil {
					return err
				}
				printCounts(cmd.OutOrStdout(), counts)
				return nil
			})
		},
	}
}

func backupListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List local backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := backup.NewLocalStore(a.cfg.Storage.BackupDir, nil, a.logger).List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No backups found.")
				return nil
			}
			fmt.Fprintf(out, "%-44s  %-20s  %10s\n", "Name", "Created", "Size")
			for _, f := range files {
				fmt.Fprintf(out, "%-44s  %-20s  %10d\n", f.Name, f.CreatedAt.Format(time.DateTime), f.Size)
			}
			return nil
		},
	}
}

func backupDriveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Google Drive backups",
	}

	auth := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Drive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := drive.OAuthConfig(a.cfg.Drive)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			_, err = drive.Authorize(ctx, conf, drive.TokenStore{Path: a.cfg.Drive.TokenPath}, func(url string) error {
				fmt.Fprintf(out, "Open this URL in a browser to authorize access:\n\n%s\n\n", url)
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Authorized. Token stored in %s\n", a.cfg.Drive.TokenPath)
			return nil
		},
	}

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored Google Drive token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return drive.TokenStore{Path: a.cfg.Drive.TokenPath}.Clear()
		},
	}

	upload := &cobra.Command{
		Use:   "upload",
		Short: "Upload a fresh backup to Google Drive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
				remote, err := a.driveBackup(ctx, db, nil)
				if err != nil {
					return err
				}
				f, err := remote.Upload(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s)\n", f.Name, f.ID)
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List backups stored on Google Drive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
				remote, err := a.driveBackup(ctx, db, nil)
				if err != nil {
					return err
				}
				files, err := remote.List(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(files) == 0 {
					fmt.Fprintln(out, "No backups found on Google Drive.")
					return nil
				}
				fmt.Fprintf(out, "%-36s  %-44s  %-20s  %10s\n", "ID", "Name", "Created", "Size")
				for _, f := range files {
					fmt.Fprintf(out, "%-36s  %-44s  %-20s  %10d\n", f.ID, f.Name, f.CreatedAt.Format(time.DateTime), f.Size)
				}
				return nil
			})
		},
	}

	restore := &cobra.Command{
		Use:   "restore <file-id>",
		Short: "Restore a backup stored on Google Drive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd, func(ctx context.Context, db *gorm.DB) error {
				remote, err := a.driveBackup(ctx, db, nil)
				if err != nil {
					return err
				}
				counts, err := remote.Restore(ctx, args[0])
				if err != nil {
					return err
				}
				printCounts(cmd.OutOrStdout(), counts)
				return nil
			})
		},
	}

	cmd.AddCommand(auth, logout, upload, list, restore)
	return cmd
}
