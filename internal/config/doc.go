// Package config loads the service configuration from an HCL file.
//
// Every block and attribute is optional; missing values fall back to
// Default(). Attribute expressions may call env("NAME") or
// env("NAME", "fallback") to read the process environment:
//
//	server {
//	  address       = env("STEPFLOW_ADDR", ":8080")
//	  socketio_path = "/socket.io/"
//	}
//
//	storage {
//	  driver = "file"
//	  dir    = "data/workflows"
//	}
//
//	execution {
//	  endpoint   = "http://localhost:8000"
//	  timeout    = "30s"
//	  task_input = "Test Input"
//	}
//
//	engine { step_delay = "500ms" }
//	import { dir = "workflows" }
//
//	log {
//	  level  = "debug"
//	  format = "json"
//	}
package config
