package source

import (
	"fmt"

	"github.com/Wisaacj/Supervisor/internal/config"
	"github.com/Wisaacj/Supervisor/internal/logger"
	"github.com/Wisaacj/Supervisor/internal/service/capture"
)

// NewOpener returns the capture.Opener for the configured source driver.
func NewOpener(cfg *config.Config, logger *logger.Logger) (capture.Opener, error) {
	switch cfg.SourceDriver {
	case config.DriverGoCV, "":
		return capture.OpenerFunc(OpenVideo), nil
	case config.DriverMJPEG:
		return capture.OpenerFunc(OpenMJPEG), nil
	case config.DriverUDP:
		return capture.OpenerFunc(func(url string) (capture.Source, error) {
			return OpenUDP(url, logger)
		}), nil
	default:
		return nil, fmt.Errorf("unknown source driver %q", cfg.SourceDriver)
	}
}
