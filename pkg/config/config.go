package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readability
var (
	LogLevel       string   // sets the log level (zap log level values)
	LogFormat      string   // text vs json
	ProviderURL    string   // base URL of the OpenF1 API
	CacheDir       string   // directory for cached provider responses
	ResourcesDir   string   // directory for rendered figures
	RequestTimeout string   // timeout for a single provider request
	Channels       []string // telemetry channels to render
	Layout         string   // stacked vs side-by-side
	Width          int      // figure width in px
	Height         int      // height of one channel chart in px
	DominanceBins  int      // number of minisectors for track dominance
	DistanceStep   float64  // resampling step on the distance axis (m)
	TimeStep       float64  // resampling step on the time axis (s)
	WebserverAddr  string   // listen addr for the figure server
	TelegramToken  string   // token of the telegram bot
	DB             string   // path of the sqlite subscriptions database
	Notify         bool     // publish finished comparisons to subscribers
	NotifyChatIDs  []int64  // additional chats notified on every comparison
)
