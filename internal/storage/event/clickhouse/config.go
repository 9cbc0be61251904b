package clickhouse

type Config struct {
	Addr     string `mapstructure:"addr"`
	DB       string `mapstructure:"db"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Debug    bool   `mapstructure:"debug"`
}
