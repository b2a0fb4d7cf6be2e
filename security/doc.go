// Package security builds client TLS settings for connections to the
// token stores, e.g. a managed Redis that requires rediss:// and mutual TLS.
//
//	tls:
//	  ca_file: /etc/shoplist/redis-ca.pem
//	  cert_file: /etc/shoplist/redis-client.pem
//	  key_file: /etc/shoplist/redis-client.key
package security
