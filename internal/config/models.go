package config

import "time"

type Config struct {
	GracefulDuration time.Duration
	Metrics          Metrics
	Tracing          Tracing
	Logs             Logs
	Run              Run
	Regions          []string
	Provider         Provider
	Nomos            Nomos
	State            State
	Reports          Reports
	Notify           Notify
	Trigger          Trigger
}

type Metrics struct {
	Enabled bool
	Port    int
}

type Tracing struct {
	Enabled bool
	Stdout  bool
}

type Logs struct {
	Level   int
	Encoder EncoderType
}

type EncoderType string

const (
	EncoderTypeJson    EncoderType = "json"
	EncoderTypeConsole EncoderType = "console"
)

type Run struct {
	Timeout     time.Duration
	Interval    time.Duration
	Concurrency int
	ForceNotify bool
	DebugLog    bool
}

type Provider struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Retry     Retry
}

type Retry struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

type Nomos struct {
	MapFile string
}

type StateBackend string

const (
	StateBackendFile      StateBackend = "file"
	StateBackendS3        StateBackend = "s3"
	StateBackendValkey    StateBackend = "valkey"
	StateBackendPostgres  StateBackend = "postgres"
	StateBackendConfigMap StateBackend = "configmap"
)

type State struct {
	Backend   StateBackend
	File      File
	S3        S3
	Valkey    Valkey
	Postgres  Postgres
	ConfigMap ConfigMap
}

type File struct {
	Path string
}

type S3 struct {
	Bucket       string
	Key          string
	BaseEndpoint string
	Region       string
	UsePathStyle bool
	Creds        AWSCreds
}

type AWSCreds struct {
	AccessKeyID     string
	SecretAccessKey string
}

func (c AWSCreds) String() string {
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		return "creds set"
	}

	return "no creds"
}

type Valkey struct {
	URL   string
	Key   string
	Creds ValkeyCreds
}

type ValkeyCreds struct {
	Password string
}

func (c ValkeyCreds) String() string {
	if c.Password != "" {
		return "password set"
	}

	return "no password"
}

type Postgres struct {
	URL   Secret
	Table string
}

type ConfigMap struct {
	Kubeconfig string
	Namespace  string
	Name       string
	DataKey    string
}

// Reports stores region failures in the bucket reachable with the state.s3 connection settings.
type Reports struct {
	Enabled bool
	Bucket  string
	Prefix  string
}

type NotifyMode string

const (
	NotifyModeBatch NotifyMode = "batch"
	NotifyModeEvent NotifyMode = "event"
)

type Notify struct {
	Mode     NotifyMode
	Timezone string
	Retry    Retry
	Email    Email
	Teams    Teams
	Kafka    Kafka
	NATS     NATS
}

type Email struct {
	Enabled bool
	Host    string
	Port    int
	From    string
	ReplyTo string
	To      []string
	Timeout time.Duration
	Creds   SMTPCreds
}

type SMTPCreds struct {
	Username string
	Password string
}

func (c SMTPCreds) String() string {
	if c.Username != "" && c.Password != "" {
		return "creds set"
	}

	return "no creds"
}

type Teams struct {
	Enabled    bool
	WebhookURL Secret
	Timeout    time.Duration
}

type Kafka struct {
	Enabled  bool
	Broker   KafkaBroker
	Producer KafkaProducer
}

type KafkaBroker struct {
	URLs    string
	Version string
	TLS     bool
	Creds   KafkaCreds
}

type KafkaCreds struct {
	Mechanism string
	Username  string
	Password  string
}

func (c KafkaCreds) String() string {
	if c.Username != "" && c.Password != "" {
		return "sasl " + c.Mechanism
	}

	return "no sasl"
}

type KafkaProducer struct {
	Topic string
}

type NATS struct {
	Enabled bool
	URL     string
	Subject string
}

type Trigger struct {
	Port        int
	Secret      Secret
	RedirectURL string
	GitHub      GitHub
}

type GitHub struct {
	APIURL   string
	Owner    string
	Repo     string
	Workflow string
	Ref      string
	Token    Secret
}

// Secret hides its value when the configuration is dumped.
type Secret string

func (s Secret) String() string {
	if s != "" {
		return "secret set"
	}

	return "no secret"
}

func (s Secret) Value() string {
	return string(s)
}
