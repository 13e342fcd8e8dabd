package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/peyoba/Text2Image-audio/app/config"
	"github.com/peyoba/Text2Image-audio/app/database"
	"github.com/peyoba/Text2Image-audio/app/handler"
	"github.com/peyoba/Text2Image-audio/app/logger"
	"github.com/peyoba/Text2Image-audio/app/middleware"
	"github.com/peyoba/Text2Image-audio/app/sanitize"
	"github.com/peyoba/Text2Image-audio/app/service"
	"github.com/peyoba/Text2Image-audio/app/task"
	"github.com/peyoba/Text2Image-audio/app/upstream"

	"github.com/gin-gonic/gin"
)

// Server 表示 HTTP 服务器
type Server struct {
	Config *config.Config
	Logger *logger.Logger
	gin    *gin.Engine
	http   *http.Server

	engine         *task.Engine
	cleanupService *service.CleanupService
}

// New 创建一个新的 Server 实例并完成组件装配
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	store, err := buildStore(cfg, log)
	if err != nil {
		return nil, err
	}

	pollinations := upstream.NewPollinationsClient(cfg.Pollinations, log)
	deepseek := upstream.NewDeepSeekClient(cfg.DeepSeek, log)
	runner := service.NewGenerationRunner(pollinations, log)

	executor, err := buildExecutor(cfg, store, runner, log)
	if err != nil {
		return nil, err
	}

	engine := task.NewEngine(store, executor, log)
	generationService := service.NewGenerationService(engine, deepseek, sanitize.New(log), log)
	cleanupService := service.NewCleanupService(store, cfg.Task.RetentionWindow(), log)

	router := gin.Default()

	s := &Server{
		Config: cfg,
		Logger: log,
		gin:    router,
		http: &http.Server{
			Addr:    ":" + cfg.Server.Port,
			Handler: router,
		},
		engine:         engine,
		cleanupService: cleanupService,
	}

	s.setupRoutes(generationService)

	return s, nil
}

// Start 启动服务器
func (s *Server) Start() error {
	s.Logger.Infof("在端口 %s 启动服务器", s.http.Addr)

	// 启动任务执行器与清理服务
	s.engine.Start()
	s.cleanupService.Start()

	return s.http.ListenAndServe()
}

// Shutdown 优雅关闭：先停收请求，再等在途任务结束
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)

	s.cleanupService.Stop()
	s.engine.Stop()

	return err
}

// setupRoutes 设置 API 路由
func (s *Server) setupRoutes(generationService *service.GenerationService) {
	s.gin.Use(middleware.CORS(s.Config))

	generationHandler := handler.NewGenerationHandler(generationService, s.Logger)

	// API 路由组
	api := s.gin.Group("/api")
	{
		api.GET("/health", generationHandler.Health)
		api.POST("/generate", generationHandler.Generate)
		api.GET("/tasks/:task_id", generationHandler.GetTask)
		api.POST("/optimize", generationHandler.Optimize)
	}
}

// buildStore 按配置选择任务存储后端
func buildStore(cfg *config.Config, log *logger.Logger) (task.Store, error) {
	switch cfg.Task.Store {
	case "memory":
		return task.NewMemoryStore(cfg.Task.RetentionWindow()), nil
	case "redis":
		return task.NewRedisStore(cfg.Task.RedisAddr)
	case "sqlite":
		db, err := database.Open(cfg.Task.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		return task.NewSQLiteStore(db, log), nil
	default:
		return nil, fmt.Errorf("不支持的任务存储后端: %s", cfg.Task.Store)
	}
}

// buildExecutor 按配置选择任务执行模式
func buildExecutor(cfg *config.Config, store task.Store, runner task.Runner, log *logger.Logger) (task.Executor, error) {
	switch cfg.Task.Mode {
	case "inline":
		return task.NewInlineExecutor(store, runner, log), nil
	case "queued":
		executor, err := task.NewQueuedExecutor(cfg.Task.RedisAddr, cfg.Task.WorkerCount, store, runner, log)
		if err != nil {
			return nil, err
		}
		// SQLite 存储在启动时把遗留任务重置为 PENDING，这里重新入队
		if sqliteStore, ok := store.(*task.SQLiteStore); ok {
			if err := requeuePending(sqliteStore, executor, log); err != nil {
				log.Errorf("重新入队遗留任务失败: %v", err)
			}
		}
		return executor, nil
	default:
		return nil, fmt.Errorf("不支持的任务执行模式: %s", cfg.Task.Mode)
	}
}

// requeuePending 将待处理任务重新放回队列
func requeuePending(store *task.SQLiteStore, executor task.Executor, log *logger.Logger) error {
	pending, err := store.PendingTasks(context.Background())
	if err != nil {
		return err
	}
	for _, t := range pending {
		if err := executor.Dispatch(t); err != nil {
			return err
		}
	}
	if len(pending) > 0 {
		log.Infof("已重新入队 %d 个待处理任务", len(pending))
	}
	return nil
}
