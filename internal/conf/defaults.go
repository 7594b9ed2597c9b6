// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Ad unit identifiers shipped with the app.
const (
	DefaultRewardedUnitID = "ca-app-pub-4144682979193082/8526010513"
	DefaultAppOpenUnitID  = "ca-app-pub-4144682979193082/4095810916"
)

// setDefaultConfig sets default values for every configuration key.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("main.name", "Danbi")
	v.SetDefault("main.locale", "ko")
	v.SetDefault("main.timezone", "Local")

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/danbi.log")
	v.SetDefault("logging.file_output.level", "info")

	v.SetDefault("store.path", "danbi.db")
	v.SetDefault("store.slowthreshold", 200*time.Millisecond)

	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.hour", 10)

	v.SetDefault("notification.urls", []string{})
	v.SetDefault("notification.timeout", 10*time.Second)

	v.SetDefault("plantnet.enabled", true)
	v.SetDefault("plantnet.apikey", "")
	v.SetDefault("plantnet.apikeyfile", "")
	v.SetDefault("plantnet.baseurl", "https://my-api.plantnet.org")
	v.SetDefault("plantnet.lang", "en")
	v.SetDefault("plantnet.results", 3)
	v.SetDefault("plantnet.timeout", 15*time.Second)
	v.SetDefault("plantnet.maximagebytes", 5*1024*1024)
	v.SetDefault("plantnet.ratelimit", 2.0)

	v.SetDefault("perenual.enabled", true)
	v.SetDefault("perenual.apikey", "")
	v.SetDefault("perenual.apikeyfile", "")
	v.SetDefault("perenual.baseurl", "https://perenual.com")
	v.SetDefault("perenual.timeout", 10*time.Second)
	v.SetDefault("perenual.cachettl", 24*time.Hour)
	v.SetDefault("perenual.detailsenabled", false)

	v.SetDefault("classifier.enabled", true)
	v.SetDefault("classifier.modelpath", "model/mobilenet_v2.tflite")
	v.SetDefault("classifier.labelpath", "model/imagenet_labels.txt")
	v.SetDefault("classifier.threads", 0)
	v.SetDefault("classifier.inputsize", 224)
	v.SetDefault("classifier.signed", true)

	v.SetDefault("ads.rewardedunitid", DefaultRewardedUnitID)
	v.SetDefault("ads.appopenunitid", DefaultAppOpenUnitID)
	v.SetDefault("ads.expiration", 4*time.Hour)

	v.SetDefault("entitlement.freeplantlimit", 3)

	v.SetDefault("webserver.enabled", false)
	v.SetDefault("webserver.listen", "127.0.0.1:8080")
	v.SetDefault("webserver.metrics", true)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
}
