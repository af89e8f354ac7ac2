package local

// Fallback drivers.
const (
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverObject = "object"
)

// Config selects where the fallback collection lives.
type Config struct {
	// Driver is file, memory or object.
	Driver string `mapstructure:"driver" default:"file"`
	// Path is the JSON file used by the file driver.
	Path string `mapstructure:"path" default:"data/press_passes.json"`
	// Object is the object name used by the object driver, inside the
	// storage bucket.
	Object string `mapstructure:"object" default:"fallback/press_passes.json"`
}
