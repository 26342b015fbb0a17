package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rinehimer/jxtl/internal/document"
	"github.com/rinehimer/jxtl/internal/render"
	"github.com/rinehimer/jxtl/internal/store"
	"github.com/rinehimer/jxtl/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// redisOptions are the connection flags shared by the commands that talk to
// render workers.
type redisOptions struct {
	addr     string
	password string
	db       int
}

func (o *redisOptions) register(cmd *cobra.Command) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	cmd.PersistentFlags().StringVar(&o.addr, "redis-addr", addr, "Redis address")
	cmd.PersistentFlags().StringVar(&o.password, "redis-pass", os.Getenv("REDIS_PASS"), "Redis password")
	cmd.PersistentFlags().IntVar(&o.db, "redis-db", 0, "Redis database")
}

func (o *redisOptions) client() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     o.addr,
		Password: o.password,
		DB:       o.db,
	})
}

func newSubmitCmd(a *app) *cobra.Command {
	var (
		conn     redisOptions
		stream   string
		tmplFile string
		tmplName string
		docType  string
		skipRoot bool
	)

	cmd := &cobra.Command{
		Use:   "submit DATA",
		Short: "Queue a render job for the render workers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			req := &render.Request{
				TemplateName: tmplName,
				Document:     string(doc),
				SkipRoot:     skipRoot,
			}
			if tmplFile != "" {
				src, err := os.ReadFile(tmplFile)
				if err != nil {
					return err
				}
				req.Template = string(src)
			}
			if docType != "" {
				kind, err := document.ParseKind(docType)
				if err != nil {
					return err
				}
				req.DocumentType = kind
			} else if kind, ok := document.KindFromPath(args[0]); ok {
				req.DocumentType = kind
			}

			client := conn.client()
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			id, err := worker.Submit(ctx, client, stream, req)
			if err != nil {
				return err
			}
			a.logger.Info("render job submitted", zap.String("job_id", id), zap.String("stream", stream))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}

	conn.register(cmd)
	cmd.Flags().StringVar(&stream, "stream", "render.work", "Work stream")
	cmd.Flags().StringVarP(&tmplFile, "template", "t", "", "Send this template file inline")
	cmd.Flags().StringVarP(&tmplName, "name", "n", "", "Use the named template stored with the workers")
	cmd.Flags().StringVar(&docType, "type", "", "Document type (json, xml or yaml); guessed from the file name when unset")
	cmd.Flags().BoolVar(&skipRoot, "skip-root", false, "Drop the XML root element")
	cmd.MarkFlagsMutuallyExclusive("template", "name")
	cmd.MarkFlagsOneRequired("template", "name")
	return cmd
}

func newTemplatesCmd(a *app) *cobra.Command {
	var (
		conn   redisOptions
		prefix string
		ttl    time.Duration
	)

	templates := func() (*store.TemplateStore, func()) {
		client := conn.client()
		return store.NewTemplateStore(client, prefix, ttl, a.logger), func() { _ = client.Close() }
	}

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage the named templates shared by render workers",
	}
	conn.register(cmd)
	cmd.PersistentFlags().StringVar(&prefix, "prefix", "jxtl:template:", "Redis key prefix")

	push := &cobra.Command{
		Use:   "push FILE [NAME]",
		Short: "Store a template, named after its file unless NAME is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			name := filepath.Base(args[0])
			if len(args) == 2 {
				name = args[1]
			}
			s, done := templates()
			defer done()
			return s.Save(cmd.Context(), name, string(src))
		},
	}
	push.Flags().DurationVar(&ttl, "ttl", 0, "Expire the template after this long")

	show := &cobra.Command{
		Use:   "show NAME",
		Short: "Print a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done := templates()
			defer done()
			src, err := s.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), src)
			return err
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done := templates()
			defer done()
			names, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "rm NAME",
		Short: "Delete a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done := templates()
			defer done()
			ok, err := s.Exists(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", store.ErrNotFound, args[0])
			}
			return s.Delete(cmd.Context(), args[0])
		},
	}

	expire := &cobra.Command{
		Use:   "expire NAME TTL",
		Short: "Set a time-to-live on a stored template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.ParseDuration(args[1])
			if err != nil {
				return err
			}
			s, done := templates()
			defer done()
			return s.SetTTL(cmd.Context(), args[0], d)
		},
	}

	cmd.AddCommand(push, show, list, remove, expire)
	return cmd
}
