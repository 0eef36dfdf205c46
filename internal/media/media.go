package media

import (
	"github.com/lanikai/aes67bridge/internal/logging"
)

var log = logging.DefaultLogger.WithTag("media")
