package common

// Environment variable keys
const (
	EnvConfigFile     = "CONFIG_FILE"
	EnvModelPath      = "MODEL_PATH"
	EnvRemoteModelURL = "REMOTE_MODEL_URL"
	EnvThreshold      = "PROB_THRESHOLD"
	EnvInputPath      = "INPUT_PATH"
	EnvOutputPath     = "OUTPUT_PATH"
	EnvDataPath       = "DATA_PATH"
	EnvServerPort     = "SERVER_PORT"
	EnvMetricsPort    = "METRICS_PORT"
	EnvPredictTimeout = "PREDICT_TIMEOUT"
	EnvLogLevel       = "LOG_LEVEL"
)

// Configuration defaults
const (
	DefaultModelPath      = "models/m6a_rf.onnx"
	DefaultThreshold      = 0.5
	DefaultServerPort     = 8080
	DefaultMetricsPort    = 9090
	DefaultPredictTimeout = "10s"
	DefaultLogLevel       = "info"
)

// Validation bounds
const (
	MinPort = 1024
	MaxPort = 65535
)
