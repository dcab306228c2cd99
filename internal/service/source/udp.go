package source

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/Wisaacj/Supervisor/internal/frame"
	"github.com/Wisaacj/Supervisor/internal/logger"
	"github.com/Wisaacj/Supervisor/internal/service/capture"
	"github.com/Wisaacj/Supervisor/internal/service/source/jpegframe"
	"github.com/Wisaacj/Supervisor/internal/service/vision"
)

const (
	maxPacketSize = 65507
	maxFrameSize  = 8 << 20
)

// udpSource reassembles JPEG frames sent as UDP datagrams, one pending frame
// per sender.
type udpSource struct {
	conn      *net.UDPConn
	packet    []byte
	assembler *jpegframe.Assembler
	logger    *logger.Logger
	once      sync.Once
	err       error
}

// OpenUDP listens on the address of a udp://host:port URL.
func OpenUDP(url string, logger *logger.Logger) (capture.Source, error) {
	addr, err := net.ResolveUDPAddr("udp", strings.TrimPrefix(url, "udp://"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	logger.Info("UDP camera source listening on %s", conn.LocalAddr())
	return &udpSource{
		conn:      conn,
		packet:    make([]byte, maxPacketSize),
		assembler: jpegframe.NewAssembler(maxFrameSize),
		logger:    logger,
	}, nil
}

func (s *udpSource) Read() (*frame.Frame, error) {
	data, err := s.readJPEG()
	if err != nil {
		return nil, err
	}
	return vision.DecodeJPEG(data)
}

// readJPEG blocks until one sender has delivered a complete JPEG.
func (s *udpSource) readJPEG() ([]byte, error) {
	for {
		n, remoteAddr, err := s.conn.ReadFromUDP(s.packet)
		if err != nil {
			return nil, err
		}

		sender := remoteAddr.IP.String()
		full, err := s.assembler.Add(sender, s.packet[:n])
		if errors.Is(err, jpegframe.ErrOversized) {
			s.logger.Warning("Dropping oversized frame from %s (no end marker within %d bytes)", sender, maxFrameSize)
			continue
		}
		if full != nil {
			return full, nil
		}
	}
}

func (s *udpSource) Close() error {
	s.once.Do(func() {
		s.err = s.conn.Close()
	})
	return s.err
}
