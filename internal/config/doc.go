// Package config loads the installer configuration.
//
// The configuration is usually HCL; JSON and YAML files are accepted too and
// are selected by file extension.
//
//	schema_version = "1.0"
//
//	ntp {
//	  config_file   = "/etc/chrony.conf"
//	  servers       = ["0.fedora.pool.ntp.org", "1.fedora.pool.ntp.org"]
//	  check         = true
//	  check_timeout = "5s"
//	  checker       = "rdate"
//	}
//
//	security {
//	  selinux   = "enforcing"
//	  root_path = "/mnt/sysimage"
//	}
//
//	logging {
//	  level       = "info"
//	  syslog_host = "10.0.0.5"
//	}
//
//	metrics {
//	  textfile = "/var/lib/node_exporter/textfile/instcfg.prom"
//	}
//
// Missing blocks and fields take the values from [Default].
package config
