package http

import (
	"github.com/go-marketplace-auth/internal/application/account"
	"github.com/go-marketplace-auth/internal/application/auth"
	"github.com/go-marketplace-auth/internal/transport/http/gate"
	appmiddleware "github.com/go-marketplace-auth/internal/transport/http/middleware"
)

// Deps holds the services and collaborators the router mounts.
// Gate and RateLimiter are optional; a nil RateLimiter gets a default one
// whose cleanup goroutine lives as long as the process.
type Deps struct {
	Auth        auth.Service
	Accounts    account.Service
	Sessions    appmiddleware.SessionDecoder
	Gate        *gate.Gate
	RateLimiter *appmiddleware.RateLimiter
}
