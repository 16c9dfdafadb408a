package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/iabetor/voxskill/internal/config"
	"github.com/iabetor/voxskill/internal/logger"
	"github.com/iabetor/voxskill/internal/skill"
)

// Server 暴露技能 webhook 的 HTTP 服务。
// 平台侧的签名校验和路由由托管环境负责，这里只处理信封。
type Server struct {
	httpServer *http.Server
	handler    *skill.Handler
	timeout    time.Duration
}

// New 创建 HTTP 服务。
func New(cfg config.ServerConfig, handler *skill.Handler) *Server {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 7 * time.Second
	}

	s := &Server{
		handler: handler,
		timeout: timeout,
	}

	router := mux.NewRouter()
	router.HandleFunc(cfg.Path, s.handleSkill).Methods(http.MethodPost)
	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	return s
}

// Run 启动服务并阻塞，ctx 取消后优雅关闭。
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("[server] 监听 %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// handleSkill 解析请求信封，交给技能处理器，写回响应信封。
func (s *Server) handleSkill(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var env skill.RequestEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		logger.Warnf("[server] 解析请求信封失败: %v", err)
		http.Error(w, "invalid request envelope", http.StatusBadRequest)
		return
	}

	// 平台对响应有硬性时间窗口，超时前必须给出答复
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	resp := s.handler.HandleRequest(ctx, &env)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Errorf("[server] 写入响应失败: %v", err)
		return
	}

	logger.Infof("[server] %s %s 处理完成，耗时 %s", env.Request.Type, intentName(&env), time.Since(start))
}

func intentName(env *skill.RequestEnvelope) string {
	if env.Request.Intent != nil {
		return env.Request.Intent.Name
	}
	return "-"
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
