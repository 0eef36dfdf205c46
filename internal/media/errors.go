//////////////////////////////////////////////////////////////////////////////
//
// Media errors
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package media

import "errors"

var (
	// ErrClosed is returned by a DropQueue once it is closed and drained.
	ErrClosed = errors.New("media: queue closed")
)
