package api

import (
	"net/http"

	"github.com/JaimeStill/neuroscan/internal/config"
	"github.com/JaimeStill/neuroscan/pkg/openapi"
	"github.com/JaimeStill/neuroscan/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) error {
	groups := []routes.Group{
		domain.Users.Handler(runtime.Codec).Routes(),
		domain.Scans.Handler(domain.Guard, runtime.MaxUploadSize, runtime.UploadDir).Routes(),
	}

	specBytes, err := buildSpec(cfg, groups)
	if err != nil {
		return err
	}

	routes.Register(mux, groups...)
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(specBytes))
	return nil
}

func buildSpec(cfg *config.Config, groups []routes.Group) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	routes.Document(spec, "", groups...)
	return openapi.MarshalJSON(spec)
}
