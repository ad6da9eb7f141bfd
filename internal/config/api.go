package config

import (
	"fmt"

	"github.com/JaimeStill/cascade/pkg/formatting"
	"github.com/JaimeStill/cascade/pkg/middleware"
	"github.com/JaimeStill/cascade/pkg/openapi"
	"github.com/JaimeStill/cascade/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "CASCADE_CORS_ENABLED",
	Origins:          "CASCADE_CORS_ORIGINS",
	AllowedMethods:   "CASCADE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "CASCADE_CORS_ALLOWED_HEADERS",
	AllowCredentials: "CASCADE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "CASCADE_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "CASCADE_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "CASCADE_PAGINATION_MAX_PAGE_SIZE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "CASCADE_OPENAPI_TITLE",
	Description: "CASCADE_OPENAPI_DESCRIPTION",
}

// APIConfig groups the HTTP surface settings: base path, upload size
// ceiling, CORS, pagination, and the OpenAPI document.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// MaxUploadSizeBytes parses MaxUploadSize, falling back to 50MB.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 50 * 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS, pagination, and OpenAPI configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge folds set fields and nested sections from overlay into c.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
}

func (c *APIConfig) loadEnv() {
	envString("CASCADE_API_BASE_PATH", &c.BasePath)
	envString("CASCADE_API_MAX_UPLOAD_SIZE", &c.MaxUploadSize)
}
