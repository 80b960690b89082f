package ssl

import (
	"crypto/x509"
	"fmt"
	"os"

	"github.com/golang/glog"
)

// GetRootCAPool returns the certificate pool of the host, or an empty pool if the host
// pool cannot be loaded.
func GetRootCAPool() *x509.CertPool {
	certPool, err := x509.SystemCertPool()
	if err != nil {
		glog.Warningf("Unable to load the system certificate pool: %v", err)
		return x509.NewCertPool()
	}
	return certPool
}

// AppendPEMFileToRootCAPool adds the certificates found in pemFileName to certPool. A nil
// certPool is replaced by an empty one.
func AppendPEMFileToRootCAPool(certPool *x509.CertPool, pemFileName string) (*x509.CertPool, error) {
	if certPool == nil {
		certPool = x509.NewCertPool()
	}
	if pemFileName == "" {
		return certPool, nil
	}

	pemCerts, err := os.ReadFile(pemFileName)
	if err != nil {
		return certPool, fmt.Errorf("failed to read file %s: %v", pemFileName, err)
	}
	if !certPool.AppendCertsFromPEM(pemCerts) {
		return certPool, fmt.Errorf("no certificates found in %s", pemFileName)
	}
	return certPool, nil
}
