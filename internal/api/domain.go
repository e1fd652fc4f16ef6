package api

import (
	"net/http"

	"github.com/JaimeStill/neuroscan/internal/scans"
	"github.com/JaimeStill/neuroscan/internal/users"
	"github.com/JaimeStill/neuroscan/pkg/middleware"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Users users.System
	Scans scans.System
	Guard func(http.Handler) http.Handler
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	usersSystem := users.New(
		runtime.Database.Connection(),
		runtime.Hasher,
		runtime.Logger,
	)

	scansSystem := scans.New(
		runtime.Database.Connection(),
		runtime.Dispatcher,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
		runtime.ReportsDir,
	)

	var resolver middleware.SubjectResolver
	if runtime.VerifySubject {
		resolver = usersSystem
	}

	return &Domain{
		Users: usersSystem,
		Scans: scansSystem,
		Guard: middleware.Authenticate(runtime.Codec, resolver, runtime.Logger),
	}
}
