package common

import (
	log "github.com/sirupsen/logrus"

	"dev.hon.one/netcrawl/util"
)

// Credential - Credential for a device.
type Credential struct {
	Username       string `json:"username" yaml:"username"`
	Password       string `json:"password" yaml:"password"`
	PrivateKeyPath string `json:"private_key_path" yaml:"private_key_path"`
	EnableSecret   string `json:"enable_secret" yaml:"enable_secret"`
}

// LoadCredentials - Load credentials from file from config.
func LoadCredentials() bool {
	if GlobalConfig.CredentialsPath == "" {
		log.Error("Credentials config path missing")
		return false
	}

	log.WithFields(log.Fields{
		"credentials_path": GlobalConfig.CredentialsPath,
	}).Trace("Loading credentials")
	var credentials map[string]Credential
	if err := util.ParseConfigFile(&credentials, GlobalConfig.CredentialsPath); err != nil {
		log.WithError(err).Error("Failed to load credentials")
		return false
	}
	if !ValidateCredentials(credentials) {
		return false
	}

	if _, found := credentials[GlobalConfig.CredentialID]; !found {
		log.WithFields(log.Fields{
			"credential_id": GlobalConfig.CredentialID,
		}).Error("Credential ID not found")
		return false
	}

	GlobalCredentials = credentials
	log.WithFields(log.Fields{
		"credential_count": len(credentials),
	}).Info("Loaded credentials")

	return true
}

// ValidateCredentials - Check that every credential has an ID and a username.
func ValidateCredentials(credentials map[string]Credential) bool {
	for credentialID, credential := range credentials {
		if credentialID == "" || credential.Username == "" {
			log.WithFields(log.Fields{
				"credential_id":       credentialID,
				"credential_username": credential.Username,
			}).Error("Invalid credential, missing fields")
			return false
		}
		if credential.Password == "" && credential.PrivateKeyPath == "" {
			log.WithFields(log.Fields{
				"credential_id": credentialID,
			}).Error("Invalid credential, no password or private key")
			return false
		}
	}
	return true
}
