package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/BlackDevilOC/managmetn-android-sub000/internal/config"
	"github.com/BlackDevilOC/managmetn-android-sub000/internal/database"
	"github.com/BlackDevilOC/managmetn-android-sub000/internal/metrics"
	"github.com/BlackDevilOC/managmetn-android-sub000/internal/repository"
	"github.com/BlackDevilOC/managmetn-android-sub000/internal/service"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/logger"
)

var (
	cfgPath  string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "substitute",
	Short:         "代课教师分配引擎",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		logger.Init(logger.Config{
			Level:    loaded.Log.Level,
			Format:   loaded.Log.Format,
			Output:   loaded.Log.Output,
			FilePath: loaded.Log.File,
		})
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML 配置文件（可选）")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "覆盖日志级别")
	rootCmd.SetVersionTemplate(fmt.Sprintf("substitute %s (%s, %s)\n", Version, GitCommit, BuildTime))
}

// Execute 运行命令行
func Execute() error {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error().Err(err).Msg("命令执行失败")
		return err
	}
	return nil
}

// deps 命令共用的服务及其依赖
type deps struct {
	svc      *service.Service
	recorder *metrics.Recorder
	repo     *repository.AssignmentRepository
	db       *database.DB
}

func (r *deps) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// newDeps 按配置选择存储后端并创建服务
func newDeps(ctx context.Context, withMetrics bool) (*deps, error) {
	rt := &deps{}
	opts := service.Options{Config: cfg}
	if withMetrics && cfg.Metrics.Enabled {
		rt.recorder = metrics.Default()
		opts.Metrics = rt.recorder
	}

	if cfg.Store.Backend == config.BackendPostgres {
		db, err := database.New(&cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		rt.db = db
		rt.repo = repository.NewAssignmentRepository(db)
		opts.Store = rt.repo
		opts.Runs = rt.repo
	}

	rt.svc = service.New(opts)
	return rt, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
