package session

import "errors"

var ErrNotFound = errors.New("error session not found")
