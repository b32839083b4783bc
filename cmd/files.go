package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"chatterbox/internal/app/storage"
	"chatterbox/internal/pkg/errs"
	"chatterbox/internal/pkg/req"
)

var flagForce bool

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the files uploaded to the chat server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := storage.NewFileStore(cfg.ServerURL, cfg.AuthToken)
		if err != nil {
			return err
		}

		names, err := store.List(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(names) == 0 {
			fmt.Fprintln(out, "No uploaded files")
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Upload a file to the chat server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := resolveIdentity(false)
		if err != nil {
			return err
		}

		store, err := storage.NewFileStore(cfg.ServerURL, cfg.AuthToken)
		if err != nil {
			return err
		}

		u, closeFile, err := openUpload(args[0], name)
		if err != nil {
			return err
		}
		defer closeFile()

		if err := u.Validate(cfg.MaxUploadBytes); err != nil {
			return err
		}

		ack, err := store.Upload(cmd.Context(), u)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), ack)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <name>",
	Short: "Download an uploaded file into the download directory or the S3 bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		fileName := args[0]

		store, err := storage.NewFileStore(cfg.ServerURL, cfg.AuthToken)
		if err != nil {
			return err
		}

		dst, err := downloadDestination(ctx)
		if err != nil {
			return err
		}

		if !flagForce {
			exists, err := dst.Has(ctx, fileName)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("%s already exists, use --force to overwrite", fileName)
			}
		}

		location, err := store.Download(ctx, fileName, dst)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s\n", fileName, location)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the persisted display name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reset, _ := cmd.Flags().GetBool("reset")

		name, err := resolveIdentity(reset)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	},
}

func init() {
	downloadCmd.Flags().BoolVar(&flagForce, "force", false, "overwrite an existing file")
	whoamiCmd.Flags().Bool("reset", false, "forget the current name and generate a new one")
}

// openUpload opens path for uploading under its base name. The returned
// func closes the file.
func openUpload(path, username string) (req.Upload, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return req.Upload{}, nil, errs.Wrap(errs.ErrInvalidParams, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return req.Upload{}, nil, errs.Wrap(errs.ErrInvalidParams, err)
	}
	if info.IsDir() {
		f.Close()
		return req.Upload{}, nil, errs.NewError(errs.ErrInvalidParams)
	}

	u := req.Upload{
		FileName: filepath.Base(path),
		Size:     info.Size(),
		Content:  f,
		Username: username,
	}

	return u, func() { f.Close() }, nil
}

func downloadDestination(ctx context.Context) (storage.Destination, error) {
	return storage.NewDestination(ctx, storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3Region:          cfg.S3Region,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3Prefix:          cfg.S3Prefix,
	}, cfg.DownloadDir)
}
