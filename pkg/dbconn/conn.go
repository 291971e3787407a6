// Package dbconn opens standardised MySQL connections used to read
// existing table definitions.
package dbconn

import (
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

const (
	customTLSConfigName   = "custom"
	requiredTLSConfigName = "required"
	verifyCATLSConfigName = "verify_ca"
	verifyIDTLSConfigName = "verify_identity"
	maxConnLifetime       = time.Minute * 3
	maxIdleConns          = 4
)

// DBConfig holds connection settings.
type DBConfig struct {
	LockWaitTimeout    int
	MaxOpenConnections int
	InterpolateParams  bool
	TLSMode            string
	TLSCertificatePath string
}

func NewDBConfig() *DBConfig {
	return &DBConfig{
		LockWaitTimeout:    30,
		MaxOpenConnections: 4,
		TLSMode:            "PREFERRED",
	}
}

// NewCustomTLSConfig creates a TLS config based on SSL mode and certificate data.
// With no certificate data the system roots are used.
func NewCustomTLSConfig(certData []byte, sslMode string) *tls.Config {
	caCertPool := rootPool(certData)

	switch strings.ToUpper(sslMode) {
	case "DISABLED":
		// This shouldn't be called for DISABLED mode, but handle gracefully
		return nil
	case "REQUIRED":
		// Encryption only, no certificate verification
		return &tls.Config{
			RootCAs:            caCertPool,
			InsecureSkipVerify: true,
		}
	case "VERIFY_CA":
		// Verify certificate against CA, but allow hostname mismatches
		return &tls.Config{
			RootCAs:            caCertPool,
			InsecureSkipVerify: true, // Skip all default verification
			VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
				return verifyChain(rawCerts, caCertPool)
			},
		}
	case "VERIFY_IDENTITY":
		return &tls.Config{
			RootCAs: caCertPool,
		}
	default:
		// PREFERRED and unknown modes: encryption only
		return &tls.Config{
			InsecureSkipVerify: true,
		}
	}
}

func rootPool(certData []byte) *x509.CertPool {
	if len(certData) == 0 {
		if pool, err := x509.SystemCertPool(); err == nil {
			return pool
		}
	}

	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(certData)

	return pool
}

// verifyChain validates the peer chain against roots but skips the
// hostname check.
func verifyChain(rawCerts [][]byte, roots *x509.CertPool) error {
	if len(rawCerts) == 0 {
		return errors.New("no certificates provided")
	}

	certs := make([]*x509.Certificate, 0, len(rawCerts))

	for _, rawCert := range rawCerts {
		cert, err := x509.ParseCertificate(rawCert)
		if err != nil {
			return fmt.Errorf("failed to parse certificate: %w", err)
		}

		certs = append(certs, cert)
	}

	intermediates := x509.NewCertPool()
	for _, cert := range certs[1:] {
		intermediates.AddCert(cert)
	}

	if _, err := certs[0].Verify(x509.VerifyOptions{Roots: roots, Intermediates: intermediates}); err != nil {
		return fmt.Errorf("certificate verification failed: %w", err)
	}

	return nil
}

// initCustomTLS registers the TLS configuration for config.TLSMode with the driver.
func initCustomTLS(config *DBConfig) error {
	var certData []byte

	if config.TLSCertificatePath != "" {
		var err error

		certData, err = os.ReadFile(config.TLSCertificatePath)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificate: %w", err)
		}
	}

	tlsConfig := NewCustomTLSConfig(certData, config.TLSMode)
	if tlsConfig == nil {
		return nil
	}

	err := mysql.RegisterTLSConfig(getTLSConfigName(config.TLSMode), tlsConfig)
	if err != nil && strings.Contains(err.Error(), "already registered") {
		err = nil
	}

	return err
}

// getTLSConfigName returns the appropriate TLS config name for the mode
func getTLSConfigName(mode string) string {
	switch strings.ToUpper(mode) {
	case "DISABLED":
		return ""
	case "REQUIRED":
		return requiredTLSConfigName
	case "VERIFY_CA":
		return verifyCATLSConfigName
	case "VERIFY_IDENTITY":
		return verifyIDTLSConfigName
	default:
		return customTLSConfigName
	}
}

// newDSN returns a new DSN to be used to connect to MySQL.
// It accepts a DSN as input and appends TLS configuration
// and session variables based on the provided configuration.
func newDSN(dsn string, config *DBConfig) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}

	// An explicit tls= in the DSN wins.
	if cfg.TLSConfig == "" && !strings.EqualFold(config.TLSMode, "DISABLED") {
		if err := initCustomTLS(config); err != nil {
			return "", err
		}

		cfg.TLSConfig = getTLSConfigName(config.TLSMode)
	}

	if cfg.Params == nil {
		cfg.Params = make(map[string]string)
	}

	cfg.Params["time_zone"] = `"+00:00"`
	cfg.Params["lock_wait_timeout"] = strconv.Itoa(config.LockWaitTimeout)
	cfg.Params["charset"] = "utf8mb4"
	cfg.Collation = "utf8mb4_bin"
	cfg.InterpolateParams = config.InterpolateParams
	cfg.AllowNativePasswords = true
	// Cleartext passwords only over TLS (RDS IAM auth).
	cfg.AllowCleartextPasswords = cfg.TLSConfig != ""

	return cfg.FormatDSN(), nil
}

// New is similar to sql.Open except we take the inputDSN and
// append additional options to it to standardize the connection.
// It will also ping the connection to ensure it is valid.
func New(inputDSN string, config *DBConfig) (db *sql.DB, err error) {
	dsn, err := newDSN(inputDSN, config)
	if err != nil {
		return nil, err
	}

	defer func() {
		if db != nil && err == nil {
			db.SetMaxOpenConns(config.MaxOpenConnections)
			db.SetConnMaxLifetime(maxConnLifetime)
			db.SetMaxIdleConns(maxIdleConns)
		}
	}()

	db, err = open(dsn)
	if err == nil || !strings.EqualFold(config.TLSMode, "PREFERRED") {
		return db, err
	}

	// PREFERRED falls back to a plain connection when TLS fails.
	configCopy := *config
	configCopy.TLSMode = "DISABLED"

	fallbackDSN, fallbackErr := newDSN(inputDSN, &configCopy)
	if fallbackErr != nil {
		return nil, fmt.Errorf("failed to create fallback DSN: %w", fallbackErr)
	}

	return open(fallbackDSN)
}

func open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	//nolint: noctx // New has no context to pass
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	return db, nil
}
