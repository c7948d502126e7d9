package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"subburn/internal/daemon"
	"subburn/internal/logging"
	"subburn/internal/logs"
)

const serviceName = "Subburn"

// Backend is the daemon surface served over IPC.
type Backend interface {
	Status(ctx context.Context) daemon.Status
	TestNotification(ctx context.Context) (bool, string, error)
}

// Server exposes daemon status via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, backend Backend, logger *slog.Logger) (*Server, error) {
	if backend == nil {
		return nil, errors.New("ipc server requires a backend")
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(serviceName, &service{backend: backend, logger: logger, ctx: serverCtx}); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "subburn status may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the bot if needed"),
				)
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"),
		)
	}
}

type service struct {
	backend Backend
	logger  *slog.Logger
	ctx     context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.backend.Status(s.ctx)
	*resp = StatusResponse{
		Running:      status.Running,
		PID:          status.PID,
		StartedAt:    status.StartedAt,
		Username:     status.Username,
		DeliveryMode: status.DeliveryMode,
		FontName:     status.FontName,
		LockPath:     status.LockPath,
		LogPath:      status.LogPath,
		HistoryPath:  status.HistoryPath,
		Completed:    status.History.Completed,
		Failed:       status.History.Failed,
		LastSweep:    status.LastSweep,
		SweptDirs:    status.SweptDirs,
	}
	for _, snap := range status.Sessions {
		resp.Sessions = append(resp.Sessions, SessionInfo{
			ID:        snap.ID,
			UserID:    snap.ChatID,
			State:     string(snap.State),
			VideoName: snap.VideoName,
			Subtitle:  snap.SubtitleName,
			CreatedAt: snap.CreatedAt,
		})
	}
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	path := s.backend.Status(s.ctx).LogPath
	if path == "" {
		return errors.New("log path unavailable")
	}
	var (
		page logs.Page
		err  error
	)
	if req.Offset < 0 {
		page, err = logs.Last(path, req.Limit, req.Match)
	} else {
		page, err = logs.ReadFrom(path, req.Offset, req.Match)
	}
	if err != nil {
		return err
	}
	resp.Lines = page.Lines
	resp.Offset = page.Offset
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.backend.TestNotification(s.ctx)
	if err != nil {
		s.logger.Warn("test notification failed", logging.Error(err))
		resp.Message = fmt.Sprintf("%s: %v", message, err)
		return nil
	}
	resp.Sent = sent
	resp.Message = message
	return nil
}
