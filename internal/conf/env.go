package conf

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// applyEnvOverrides binds the bus address environment variables declared in
// §6: HIVEMQ_IP/HIVEMQ_PORT compose the MQTT broker URL when mqtt.broker
// was not set explicitly in the config file.
func applyEnvOverrides(v *viper.Viper) {
	if v.GetString("mqtt.broker") != "" {
		return
	}
	ip := os.Getenv("HIVEMQ_IP")
	port := os.Getenv("HIVEMQ_PORT")
	if ip == "" {
		return
	}
	if port == "" {
		port = "1883"
	}
	v.Set("mqtt.broker", fmt.Sprintf("tcp://%s:%s", ip, port))
}
