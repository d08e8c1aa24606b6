package cli

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/grunt/pkg/api"
	"github.com/matzehuels/grunt/pkg/buildinfo"
	"github.com/matzehuels/grunt/pkg/cache"
	"github.com/matzehuels/grunt/pkg/pipeline"
	"github.com/matzehuels/grunt/pkg/store"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	addr      string
	redisURL  string
	mongoURI  string
	mongoDB   string
	storeDir  string
	noCache   bool
	parallel  int
	timeout   time.Duration
	maxBody   int64
	maxCells  int64
	keyPrefix string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the model API over HTTP",
		Long: `Serve the model API over HTTP.

Models are cached in Redis with --redis, otherwise in the local cache
directory. They are stored in MongoDB with --mongo, otherwise in the local
model store.

Endpoints:
  GET    /healthz
  POST   /v1/axes
  POST   /v1/layers/validate
  POST   /v1/models
  GET    /v1/models
  GET    /v1/models/{id}
  DELETE /v1/models/{id}`,
		Example: `  grunt serve --addr :8080
  grunt serve --redis redis://localhost:6379/0 --mongo mongodb://localhost:27017`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c.Logger.Info("starting "+appName, "version", buildinfo.Version, "commit", buildinfo.Commit)

			ch, err := c.serveCache(cmd, opts)
			if err != nil {
				return err
			}
			var keyer cache.Keyer
			if opts.keyPrefix != "" {
				keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), opts.keyPrefix)
			}
			runner := pipeline.NewRunner(ch, keyer, c.Logger)
			defer runner.Close()

			if opts.mongoURI != "" {
				st, err := store.NewMongoStore(ctx, store.MongoConfig{URI: opts.mongoURI, Database: opts.mongoDB})
				if err != nil {
					return err
				}
				runner.Store = st
				c.Logger.Info("model store", "backend", "mongo", "database", opts.mongoDB)
			} else {
				st, err := store.NewFileStore(opts.storeDir)
				if err != nil {
					return err
				}
				runner.Store = st
				c.Logger.Info("model store", "backend", "file", "dir", st.Path())
			}

			srv := api.New(runner, c.Logger, api.Config{
				MaxBodyBytes:   opts.maxBody,
				RequestTimeout: opts.timeout,
				Parallelism:    opts.parallel,
				MaxCells:       opts.maxCells,
			})
			if err := srv.ListenAndServe(ctx, opts.addr); err != nil {
				return fmt.Errorf("serve %s: %w", opts.addr, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "Redis URL for the model cache")
	cmd.Flags().StringVar(&opts.keyPrefix, "key-prefix", "", "prefix for cache keys shared with other deployments")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo", "", "MongoDB URI for the model store")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", "grunt", "MongoDB database")
	cmd.Flags().StringVar(&opts.storeDir, "store-dir", "", "local model store directory (default: XDG data dir)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", runtime.GOMAXPROCS(0), "layers generated concurrently per request")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", api.DefaultRequestTimeout, "request timeout")
	cmd.Flags().Int64Var(&opts.maxBody, "max-body", api.DefaultMaxBodyBytes, "maximum request body in bytes")
	cmd.Flags().Int64Var(&opts.maxCells, "max-cells", pipeline.DefaultMaxCells, "maximum rows × cols × borders per model (negative: unlimited)")

	return cmd
}

func (c *CLI) serveCache(cmd *cobra.Command, opts serveOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redisURL != "" {
		ch, err := cache.NewRedisCache(cmd.Context(), opts.redisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.Logger.Info("model cache", "backend", "redis")
		return ch, nil
	}
	ch, err := newCache(false)
	if err != nil {
		return nil, err
	}
	c.Logger.Info("model cache", "backend", "file")
	return ch, nil
}
