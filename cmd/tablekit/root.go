package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tablekit/tablekit/internal/config"
	"github.com/tablekit/tablekit/internal/database"
	"github.com/tablekit/tablekit/internal/database/mysql"
	"github.com/tablekit/tablekit/internal/database/postgres"
	"github.com/tablekit/tablekit/internal/logger"
	"github.com/tablekit/tablekit/internal/schema"
	"github.com/tablekit/tablekit/internal/server"
	"github.com/tablekit/tablekit/internal/snapshot"
	snapminio "github.com/tablekit/tablekit/internal/snapshot/minio"
)

// app bundles everything a subcommand needs after setup.
type app struct {
	cfg  *config.Config
	log  *logger.Logger
	db   database.DB
	conn schema.Conn
	coll *schema.Collection
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "tablekit",
		Short:         "Reflect live database schemas and translate them between SQL dialects",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	root.AddCommand(
		newTablesCmd(&configPath),
		newDescribeCmd(&configPath),
		newDDLCmd(&configPath),
		newSnapshotCmd(&configPath),
		newServeCmd(&configPath),
	)
	return root
}

// setup loads config, builds the logger, and connects the configured driver.
func setup(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	dbCfg := &database.Config{
		DSN:             cfg.Database.DSN,
		Schema:          cfg.Database.Schema,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
		QueryTimeout:    cfg.Database.QueryTimeout,
	}

	var db database.DB
	switch cfg.Database.Driver {
	case "mysql":
		dbCfg.Driver = database.DriverMySQL
		db, err = mysql.New(ctx, dbCfg)
	default:
		dbCfg.Driver = database.DriverPostgres
		db, err = postgres.New(ctx, dbCfg)
	}
	if err != nil {
		return nil, err
	}

	conn := database.AsSchemaConn(db)
	coll := schema.NewCollection(conn, schema.ReflectConfig{Schema: cfg.Database.Schema})

	return &app{cfg: cfg, log: log, db: db, conn: conn, coll: coll}, nil
}

// newArchiver connects the snapshot store when one is configured.
func newArchiver(ctx context.Context, cfg *config.Config) (*snapshot.Archiver, error) {
	if !cfg.Snapshot.Enabled() {
		return nil, nil
	}
	store, err := snapminio.New(ctx, &snapshot.Config{
		Endpoint:  cfg.Snapshot.Endpoint,
		AccessKey: cfg.Snapshot.AccessKey,
		SecretKey: cfg.Snapshot.SecretKey,
		Bucket:    cfg.Snapshot.Bucket,
		UseSSL:    cfg.Snapshot.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return snapshot.NewArchiver(store, cfg.Snapshot.Prefix), nil
}

func newTablesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List base tables visible in the configured schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			names, err := a.coll.TableNames(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newDescribeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Print one table's reflected structure as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			t, err := a.coll.Describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			doc, err := json.MarshalIndent(t, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(doc))
			return nil
		},
	}
}

func newDDLCmd(configPath *string) *cobra.Command {
	var dialectName string

	cmd := &cobra.Command{
		Use:   "ddl <table>",
		Short: "Print a table's CREATE TABLE statement",
		Long: "Reflects the table and renders its CREATE TABLE statement. " +
			"With --dialect the statement is translated into another backend's DDL.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			t, err := a.coll.Describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			d := a.conn.Dialect()
			if dialectName != "" {
				if d, err = schema.DialectByName(dialectName); err != nil {
					return err
				}
			}

			stmt, err := schema.CreateSQL(d, t)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stmt)
			return nil
		},
	}
	cmd.Flags().StringVar(&dialectName, "dialect", "", "target dialect (postgres, mysql, sqlite)")
	return cmd
}

func newSnapshotCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Reflect the full schema and archive it to object storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			archiver, err := newArchiver(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			if archiver == nil {
				return fmt.Errorf("snapshot storage is not configured (snapshot.endpoint is empty)")
			}

			set, err := a.coll.Reflect(cmd.Context())
			if err != nil {
				return err
			}
			res, err := archiver.Archive(cmd.Context(), a.conn.Dialect(), set)
			if err != nil {
				return err
			}
			a.log.Infof("archived %d tables", len(set.Tables))
			fmt.Fprintln(cmd.OutOrStdout(), res.JSONKey)
			fmt.Fprintln(cmd.OutOrStdout(), res.SQLKey)
			return nil
		},
	}
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the schema API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			archiver, err := newArchiver(ctx, a.cfg)
			if err != nil {
				return err
			}

			srv := server.New(a.log, a.conn, schema.ReflectConfig{Schema: a.cfg.Database.Schema}, archiver)
			return srv.ListenAndServe(ctx, a.cfg.Server.Addr, a.cfg.Server.ShutdownTimeout)
		},
	}
}
