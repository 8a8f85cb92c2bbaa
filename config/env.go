package config

import (
	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/argon2"
)

const Production = "production"

// Environment is read once at process start.
type Environment struct {
	DatabaseURL string `env:"DB_URL"`
	Secret      string `env:"JWT_SECRET"`
	AppEnv      string `env:"APP_ENV,default=development"`
	Port        string `env:"PORT"`
	SiteURL     string `env:"SITEURL"`
}

func (e Environment) Production() bool {
	return e.AppEnv == Production
}

// LoadEnvironment loads dotenv files (".env" when none are named, missing
// files are fine) and decodes the process environment.
func LoadEnvironment(files ...string) (Environment, error) {
	_ = godotenv.Load(files...)
	var e Environment
	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return Environment{}, err
	}
	return e, nil
}

// DeriveKey stretches secret into a 32 byte key for one purpose.
func DeriveKey(secret, purpose string) []byte {
	return argon2.IDKey([]byte(secret), []byte("folio:"+purpose), 1, 64*1024, 2, 32)
}
