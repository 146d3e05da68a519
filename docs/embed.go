package docs

import _ "embed"

//go:embed dispatch-api.openapi.yaml
var OpenAPI []byte

//go:embed swagger.html
var SwaggerHTML []byte
