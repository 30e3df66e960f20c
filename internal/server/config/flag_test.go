package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_parseFlags_Overrides(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin",
		"-a", ":9090",
		"-d", "postgres://other/db",
		"-s", "flagsecret",
		"-q", "1024",
		"-t", "30",
		"-r", "5",
		"-u", "flaguser",
		"-p", "flagpass",
		"-b", "flagbucket",
		"-g", "eu-west-1",
		"-e", "http://minio:9000/",
	}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, ":9090", cfg.EndpointAddr)
	assert.Equal(t, "postgres://other/db", cfg.DatabaseDSN)
	assert.Equal(t, "flagsecret", cfg.SecretKey)
	assert.Equal(t, int64(1024), cfg.MaxQuotaBytes)
	assert.Equal(t, 30*time.Minute, cfg.UploadURLTTL)
	assert.Equal(t, 5*time.Minute, cfg.DownloadURLTTL)
	assert.Equal(t, "flaguser", cfg.S3RootUser)
	assert.Equal(t, "flagpass", cfg.S3RootPassword)
	assert.Equal(t, "flagbucket", cfg.S3Bucket)
	assert.Equal(t, "eu-west-1", cfg.S3Region)
	assert.Equal(t, "http://minio:9000/", cfg.S3BaseEndpoint)
}

func Test_parseFlags_DefaultsPreservedWithoutFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, ":8080", cfg.EndpointAddr)
	assert.Equal(t, 15*time.Minute, cfg.UploadURLTTL)
}
