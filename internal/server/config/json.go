package config

import (
	"encoding/json"
	"os"

	"github.com/avolkov/diaryvault/internal/flagx"
)

// jsonConfig mirrors Config for file-based configuration. Only fields
// present in the file override the running config.
type jsonConfig struct {
	EndpointAddrHTTP *string `json:"endpoint_addr_http"`
	DatabaseDSN      *string `json:"database_dsn"`
	RedisAddr        *string `json:"redis_addr"`
	RedisPassword    *string `json:"redis_password"`
	LocalSaltDBPath  *string `json:"local_salt_db_path"`
	SecretKey        *string `json:"secret_key"`
	S3RootUser       *string `json:"s3_root_user"`
	S3RootPassword   *string `json:"s3_root_password"`
	S3Bucket         *string `json:"s3_bucket"`
	S3Region         *string `json:"s3_region"`
	S3BaseEndpoint   *string `json:"s3_base_endpoint"`
}

// parseJSON loads configuration from the JSON file named by the -c/-config
// flags. No flag, no file, no overlay.
func parseJSON(cfg *Config) {
	path := flagx.JSONConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	overlay := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	overlay(&cfg.EndpointAddrHTTP, jc.EndpointAddrHTTP)
	overlay(&cfg.DatabaseDSN, jc.DatabaseDSN)
	overlay(&cfg.RedisAddr, jc.RedisAddr)
	overlay(&cfg.RedisPassword, jc.RedisPassword)
	overlay(&cfg.LocalSaltDBPath, jc.LocalSaltDBPath)
	overlay(&cfg.SecretKey, jc.SecretKey)
	overlay(&cfg.S3RootUser, jc.S3RootUser)
	overlay(&cfg.S3RootPassword, jc.S3RootPassword)
	overlay(&cfg.S3Bucket, jc.S3Bucket)
	overlay(&cfg.S3Region, jc.S3Region)
	overlay(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
}
