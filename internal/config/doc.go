// Package config loads the application configuration from an HCL file.
//
// The file lives at $TG_HOME/config/config.hcl. Top-level attributes set the
// storage root, the listing pattern, the filter marker, concurrency and the
// ambient logging, metrics and tracing switches. A single `generator` block
// selects the text generation backend by its label and passes it free-form
// params:
//
//	storage_root = "./workspace"
//	filter_marker = "3"
//
//	generator "openai" {
//	  params = {
//	    model   = "gpt-4o-mini"
//	    api_key = env.OPENAI_API_KEY
//	  }
//	}
//
// Expressions can read process environment variables through the `env`
// object.
package config
