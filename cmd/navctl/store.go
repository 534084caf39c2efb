package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/vango-dev/navstate/internal/config"
	"github.com/vango-dev/navstate/internal/errors"
	"github.com/vango-dev/navstate/pkg/navtree"
	"github.com/vango-dev/navstate/pkg/snapstore"
)

// openStore opens the snapshot store described by sc. It returns a nil store
// when persistence is disabled. closeFn releases the store and anything it
// owns.
func openStore(ctx context.Context, sc config.StoreConfig) (store snapstore.Store, closeFn func() error, err error) {
	switch sc.Kind {
	case "":
		return nil, func() error { return nil }, nil

	case "memory":
		m := snapstore.NewMemoryStore()
		return m, m.Close, nil

	case "sqlite":
		db, err := sql.Open("sqlite", sc.DSN)
		if err != nil {
			return nil, nil, errors.New("N401").WithDetail("sqlite " + sc.DSN).Wrap(err)
		}
		// A single connection keeps ":memory:" databases alive and serializes writers.
		db.SetMaxOpenConns(1)
		opts := []snapstore.SQLStoreOption{snapstore.WithDialect(snapstore.DialectSQLite)}
		if sc.Table != "" {
			opts = append(opts, snapstore.WithTableName(sc.Table))
		}
		s := snapstore.NewSQLStore(db, opts...)
		if err := s.CreateTable(ctx); err != nil {
			db.Close()
			return nil, nil, errors.New("N401").WithDetail("sqlite " + sc.DSN).Wrap(err)
		}
		return s, func() error {
			s.Close()
			return db.Close()
		}, nil

	case "s3":
		region := sc.Region
		if region == "" {
			region = os.Getenv("AWS_REGION")
		}
		if region == "" {
			region = "us-east-1"
		}
		opts := s3.Options{
			Region:      region,
			Credentials: aws.NewCredentialsCache(envCredentials()),
		}
		if sc.Endpoint != "" {
			opts.BaseEndpoint = aws.String(sc.Endpoint)
			opts.UsePathStyle = true
		}
		s := snapstore.NewS3Store(s3.New(opts), sc.Bucket, sc.Prefix)
		return s, s.Close, nil
	}
	return nil, nil, errors.New("N402").WithDetail("store.kind " + sc.Kind)
}

// envCredentials reads static credentials from the standard AWS variables.
func envCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
		if id == "" || secret == "" {
			return aws.Credentials{}, fmt.Errorf("navctl: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
		}
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "navctl-env",
		}, nil
	})
}

func (c *cli) storeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect snapshots in the configured store",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List snapshot ids",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(cmd.Context(), func(ctx context.Context, s snapstore.Store) error {
					ids, err := s.List(ctx)
					if err != nil {
						return errors.Classify(err, "N401")
					}
					for _, id := range ids {
						fmt.Fprintln(c.stdout, id)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Print the tree stored under id",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(cmd.Context(), func(ctx context.Context, s snapstore.Store) error {
					data, err := s.Load(ctx, args[0])
					if err != nil {
						return errors.Classify(err, "N401")
					}
					if data == nil {
						return errors.New("N501").WithDetail("no snapshot " + args[0])
					}
					root, err := navtree.UnmarshalSnapshot(data, nil)
					if err != nil {
						return errors.Classify(err, "N103")
					}
					fmt.Fprint(c.stdout, c.styles.tree(root))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete the snapshot stored under id",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(cmd.Context(), func(ctx context.Context, s snapstore.Store) error {
					if err := s.Delete(ctx, args[0]); err != nil {
						return errors.Classify(err, "N401")
					}
					c.styles.success(c.stdout, "deleted %s", args[0])
					return nil
				})
			},
		},
	)
	return cmd
}

func (c *cli) withStore(ctx context.Context, fn func(context.Context, snapstore.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	store, closeFn, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("N401").
			WithDetail("the config has no [store] section").
			WithSuggestion("Set store.kind to memory, sqlite or s3")
	}
	defer closeFn()
	return fn(ctx, store)
}
