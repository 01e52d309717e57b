package app

import (
	"os"
	"testing"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	// Clear all env vars that LoadConfig reads so we get pure defaults.
	envVars := []string{
		"HTTP_ADDR", "MONGO_URI", "MONGO_DB",
		"MONGO_EPISODES_COLLECTION", "MONGO_USERS_COLLECTION",
		"BLOB_BACKEND", "BLOB_BUCKET",
		"S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_REGION", "S3_USE_SSL",
		"JWT_SECRET", "JWT_EXPIRY_HOURS", "MAX_UPLOAD_BYTES",
		"LOG_LEVEL", "LOG_FORMAT", "ENV", "CORS_ALLOWED_ORIGINS",
	}
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg := LoadConfig()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"HTTPAddr", cfg.HTTPAddr, ":8080"},
		{"MongoURI", cfg.MongoURI, "mongodb://localhost:27017"},
		{"MongoDatabase", cfg.MongoDatabase, "podstream"},
		{"EpisodesCollection", cfg.EpisodesCollection, "episodes"},
		{"UsersCollection", cfg.UsersCollection, "users"},
		{"BlobBackend", cfg.BlobBackend, "gridfs"},
		{"BlobBucket", cfg.BlobBucket, "uploads"},
		{"S3Endpoint", cfg.S3Endpoint, "localhost:9000"},
		{"S3Region", cfg.S3Region, ""},
		{"S3UseSSL", cfg.S3UseSSL, false},
		{"JWTSecret", cfg.JWTSecret, ""},
		{"JWTExpiryHours", cfg.JWTExpiryHours, int64(168)},
		{"MaxUploadBytes", cfg.MaxUploadBytes, int64(50 << 20)},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFormat", cfg.LogFormat, "text"},
		{"Environment", cfg.Environment, "development"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", tt.got, tt.got, tt.want, tt.want)
			}
		})
	}

	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Errorf("CORSAllowedOrigins: got %v, want nil/empty", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	setEnvs(t, map[string]string{
		"HTTP_ADDR":                 ":9090",
		"MONGO_URI":                 "mongodb://remote:27017",
		"MONGO_DB":                  "mydb",
		"MONGO_EPISODES_COLLECTION": "shows",
		"MONGO_USERS_COLLECTION":    "accounts",
		"BLOB_BACKEND":              "S3",
		"BLOB_BUCKET":               "media",
		"S3_ENDPOINT":               "minio:9000",
		"S3_ACCESS_KEY":             "ak",
		"S3_SECRET_KEY":             "sk",
		"S3_REGION":                 "us-east-1",
		"S3_USE_SSL":                "true",
		"JWT_SECRET":                "topsecret",
		"JWT_EXPIRY_HOURS":          "24",
		"MAX_UPLOAD_BYTES":          "1048576",
		"LOG_LEVEL":                 "DEBUG",
		"LOG_FORMAT":                "JSON",
		"ENV":                       "Production",
		"CORS_ALLOWED_ORIGINS":      "http://localhost:3000, https://example.com",
	})

	cfg := LoadConfig()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"HTTPAddr", cfg.HTTPAddr, ":9090"},
		{"MongoURI", cfg.MongoURI, "mongodb://remote:27017"},
		{"MongoDatabase", cfg.MongoDatabase, "mydb"},
		{"EpisodesCollection", cfg.EpisodesCollection, "shows"},
		{"UsersCollection", cfg.UsersCollection, "accounts"},
		{"BlobBackend", cfg.BlobBackend, "s3"},
		{"BlobBucket", cfg.BlobBucket, "media"},
		{"S3Endpoint", cfg.S3Endpoint, "minio:9000"},
		{"S3AccessKey", cfg.S3AccessKey, "ak"},
		{"S3SecretKey", cfg.S3SecretKey, "sk"},
		{"S3Region", cfg.S3Region, "us-east-1"},
		{"S3UseSSL", cfg.S3UseSSL, true},
		{"JWTSecret", cfg.JWTSecret, "topsecret"},
		{"JWTExpiryHours", cfg.JWTExpiryHours, int64(24)},
		{"MaxUploadBytes", cfg.MaxUploadBytes, int64(1048576)},
		{"LogLevel", cfg.LogLevel, "debug"},
		{"LogFormat", cfg.LogFormat, "json"},
		{"Environment", cfg.Environment, "production"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", tt.got, tt.got, tt.want, tt.want)
			}
		})
	}

	wantOrigins := []string{"http://localhost:3000", "https://example.com"}
	if len(cfg.CORSAllowedOrigins) != len(wantOrigins) {
		t.Fatalf("CORSAllowedOrigins: got %d entries, want %d", len(cfg.CORSAllowedOrigins), len(wantOrigins))
	}
	for i, got := range cfg.CORSAllowedOrigins {
		if got != wantOrigins[i] {
			t.Errorf("CORSAllowedOrigins[%d]: got %q, want %q", i, got, wantOrigins[i])
		}
	}
}

func TestGetEnvInt64InvalidFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		envVal   string
		fallback int64
		want     int64
	}{
		{"empty string", "", 42, 42},
		{"not a number", "abc", 42, 42},
		{"negative number", "-5", 42, 42},
		{"zero", "0", 42, 0},
		{"valid positive", "100", 42, 100},
		{"whitespace around number", "  50  ", 42, 50},
		{"float", "3.14", 42, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT_VAR", tt.envVal)
			got := getEnvInt64("TEST_INT_VAR", tt.fallback)
			if got != tt.want {
				t.Errorf("getEnvInt64(%q, %d) = %d, want %d", tt.envVal, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty string", "", nil},
		{"whitespace only", "   ", nil},
		{"single value", "http://localhost:3000", []string{"http://localhost:3000"}},
		{"multiple values", "a,b,c", []string{"a", "b", "c"}},
		{"values with spaces", " a , b , c ", []string{"a", "b", "c"}},
		{"trailing comma", "a,b,", []string{"a", "b"}},
		{"empty entries filtered", "a,,b,,c", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCSV(tt.input)
			if tt.want == nil {
				if got != nil {
					t.Errorf("parseCSV(%q) = %v, want nil", tt.input, got)
				}
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseCSV(%q) returned %d elements, want %d", tt.input, len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("parseCSV(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name     string
		envVal   string
		fallback bool
		want     bool
	}{
		{"empty uses fallback", "", true, true},
		{"true", "true", false, true},
		{"numeric one", "1", false, true},
		{"false", "false", true, false},
		{"garbage uses fallback", "yep", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL_VAR", tt.envVal)
			if got := getEnvBool("TEST_BOOL_VAR", tt.fallback); got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.envVal, tt.fallback, got, tt.want)
			}
		})
	}
}
