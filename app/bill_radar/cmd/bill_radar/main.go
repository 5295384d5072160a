package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2"
	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/bill_radar/app/bill_radar/internal/server"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/assembly"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/config"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/content"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/digest"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/engine"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/logger"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/provider"
	"github.com/iWorld-y/bill_radar/app/bill_radar/pkg/storage"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name 服务名称
	Name = "bill_radar"
	// Version 版本号
	Version string

	flagconf     string
	flagKeywords string
	flagStart    string
	flagEnd      string
	flagOut      string
	flagServe    bool

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
	flag.StringVar(&flagKeywords, "keywords", "", "comma separated keywords, overrides config")
	flag.StringVar(&flagStart, "start", "", "start date YYYY-MM-DD")
	flag.StringVar(&flagEnd, "end", "", "end date YYYY-MM-DD")
	flag.StringVar(&flagOut, "out", "", "digest output path, overrides config")
	flag.BoolVar(&flagServe, "serve", false, "run the HTTP service instead of a one-shot digest")
}

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}

	// 2. 初始化日志
	logg, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	logg.Info("启动国会议案雷达...")

	ctx := context.Background()

	// 如果配置了数据库信息，则尝试连接
	var store *storage.Storage
	if cfg.DB.Host != "" {
		s, err := storage.NewStorage(cfg.DB)
		if err != nil {
			logg.Errorf("无法连接数据库: %v. 将不归档分析结果。", err)
		} else {
			store = s
			defer store.Close()
			logg.Info("已成功连接到数据库")
		}
	} else {
		logg.Info("未配置数据库信息，跳过数据库连接")
	}

	// 3. 初始化分析服务
	chatModel, err := provider.NewChatModel(ctx, cfg.LLM)
	if err != nil {
		logg.Fatalf("分析服务初始化失败: %v", err)
	}
	if chatModel == nil {
		logg.Warn("未配置分析服务密钥，所有议案将使用模拟分析")
	}
	limiter := provider.NewLimiter(cfg.Concurrency)
	logg.Infof("限流器已配置: Limit=%.2f req/s, Burst=%d", limiter.Limit(), limiter.Burst())

	// 4. 组装流水线
	bills := assembly.NewClient(cfg.Assembly)
	resolver := content.NewResolver(bills, &http.Client{Timeout: config.Seconds(cfg.Content.Timeout)}, logg,
		content.WithReadabilityFallback(cfg.Content.ReadabilityFallback))
	pipeline := engine.NewPipeline(resolver, provider.New(chatModel, limiter, logg), logg)

	if flagServe {
		if err := serve(cfg, pipeline, store, logg); err != nil {
			logg.Fatalf("服务异常退出: %v", err)
		}
		return
	}

	// 5. 生成摘要
	now := time.Now()
	opts, out := runOptions(cfg, now, cliFlags{
		keywords: flagKeywords,
		start:    flagStart,
		end:      flagEnd,
		out:      flagOut,
	})
	opts.ProgressCallback = func(status string, progress int) {
		logg.Debugf("进度 %d%%: %s", progress, status)
	}

	var archive engine.Archive
	if store != nil {
		archive = store
	}
	eng := engine.NewEngine(bills, pipeline, archive, cfg.Concurrency.Workers, logg)
	entries, err := eng.Run(ctx, opts)
	if err != nil {
		logg.Fatalf("议案分析失败: %v", err)
	}

	if err := digest.Write(out, digest.NewData(now, opts.Keywords, entries)); err != nil {
		logg.Fatalf("生成摘要失败: %v", err)
	}
	logg.Infof("%s 已写入 %s", digest.Subject(cfg.Digest.SubjectPrefix, now, len(entries)), out)
}

func serve(cfg *config.Config, pipeline *engine.Pipeline, store *storage.Storage, logg *logrus.Logger) error {
	kl := logger.NewKratosLogger(logg)

	var lister server.AnalysisLister
	if store != nil {
		lister = store
	}
	hs := server.NewHTTPServer(cfg.Server, server.NewBillService(pipeline, lister, kl), kl)

	app := kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(kl),
		kratos.Server(hs),
	)
	return app.Run()
}

// cliFlags 覆盖配置的命令行参数，空值表示沿用配置
type cliFlags struct {
	keywords string
	start    string
	end      string
	out      string
}

// runOptions 合并配置与命令行参数，返回分析选项和摘要输出路径
func runOptions(cfg *config.Config, now time.Time, f cliFlags) (engine.RunOptions, string) {
	opts := engine.RunOptions{Keywords: cfg.Keywords}
	if f.keywords != "" {
		opts.Keywords = splitKeywords(f.keywords)
	}
	opts.StartDate, opts.EndDate = engine.DateRange(now, cfg.LookbackDays)
	if f.start != "" {
		opts.StartDate = f.start
	}
	if f.end != "" {
		opts.EndDate = f.end
	}

	out := cfg.Digest.Output
	if f.out != "" {
		out = f.out
	}
	return opts, out
}

func splitKeywords(s string) []string {
	var out []string
	for _, kw := range strings.Split(s, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
