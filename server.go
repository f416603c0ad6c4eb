package blogboot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Runtime string

const (
	RuntimeLambda Runtime = "lambda"
	RuntimeHTTP   Runtime = "http"
)

const shutdownTimeout = 30 * time.Second

type Server struct {
	engine     *gin.Engine
	runtime    Runtime
	basePath   string
	corsConfig *cors.Config
	logger     *zap.Logger
	errors     *ErrorReporter
}

// New creates a server whose engine logs requests and recovers panics with
// logger. LAMBDA_RUNTIME=true selects the Lambda runtime.
func New(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	runtime := RuntimeHTTP
	if os.Getenv("LAMBDA_RUNTIME") == "true" {
		runtime = RuntimeLambda
	}

	reporter := NewErrorReporter(logger, true)
	engine := gin.New()
	engine.Use(GinLogger(logger), GinRecovery(logger, reporter))

	return &Server{
		engine:  engine,
		runtime: runtime,
		logger:  logger,
		errors:  reporter,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Logger() *zap.Logger {
	return s.logger
}

// SetBasePath prefixes every group registered afterwards.
func (s *Server) SetBasePath(basePath string) {
	s.basePath = basePath
}

// SetProduction controls whether unexpected error details reach clients.
func (s *Server) SetProduction(production bool) {
	s.errors.production = production
}

func (s *Server) SetRuntime(runtime Runtime) {
	s.runtime = runtime
}

// SendError writes err using the server's error reporter.
func (s *Server) SendError(c *gin.Context, err error) {
	s.errors.Send(c, err)
}

func (s *Server) Start(port int) error {
	if s.runtime == RuntimeLambda {
		return s.startLambda()
	}
	return s.startHTTP(port)
}

// startHTTP serves until SIGINT or SIGTERM, then drains in-flight requests.
func (s *Server) startHTTP(port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) startLambda() error {
	ginLambda := ginadapter.New(s.engine)

	handler := func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return ginLambda.ProxyWithContext(ctx, req)
	}

	lambda.Start(handler)
	return nil
}

func (s *Server) WithCORS(config *cors.Config) *Server {
	s.corsConfig = config
	s.engine.Use(cors.New(*config))
	return s
}

func (s *Server) DefaultCORS() *Server {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.MaxAge = 12 * time.Hour
	return s.WithCORS(&config)
}

func (s *Server) CustomCORS(allowOrigins []string, allowMethods []string, allowHeaders []string, maxAge time.Duration) *Server {
	config := cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: allowMethods,
		AllowHeaders: allowHeaders,
		MaxAge:       maxAge,
	}
	return s.WithCORS(&config)
}
