// Package config provides configuration loading for the tracking service.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later sources
// overriding earlier ones:
//
//	1. Default values from Default()
//	2. A YAML file (SMUTRACK_CONFIG_FILE, config.yaml or configs/config.yaml)
//	3. A .env file in the working directory, loaded into the environment
//	4. Environment variables prefixed with SMUTRACK_
//
// # Environment Variables
//
// Nested sections map to underscore-joined names:
//
//	SMUTRACK_SERVER_PORT=8000
//	SMUTRACK_TRACKER_LATEST_EVENT_TIMEOUT=6s
//	SMUTRACK_SEARCH_TIME_ORDINAL=2
//	SMUTRACK_SEARCH_RESCUE_WAIT=20s
//	SMUTRACK_PUBLISHER_NATS_URL=nats://localhost:4222
//
// The ETA attempt tiers can only be overridden from YAML:
//
//	search:
//	  tiers:
//	    - name: stealth
//	      block_images: true
//	    - name: rescue
//	      visible: true
//	      pre_scan_wait: 20s
//
// # Validation
//
// Load rejects non-positive step timeouts, a time ordinal below 1,
// negative pre-scan waits and a missing portal URL.
package config
