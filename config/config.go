package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var (
	TLS_DOMAINS          = ""           // e.g. "example.com,example2.com"
	MYSQL_DSN            = ""           // MySQL will be used if this is set
	SQLITE_FILE          = "wedding.db" // SQLite will be used if MYSQL_DSN is not configured
	BIND_ADDRESS         = "0.0.0.0:8080"
	PUBLIC_URL           = "http://localhost:8080" // Used in invitation links
	TMP_DIR              = "/tmp"
	DEFAULT_BUCKET_DIR   = "./data" // Used for creating initial bucket
	DEBUG_MODE           = true
	SESSION_KEY          = "change me to something long and random"
	FACE_DETECT          = true       // Enable/disable face detection
	FACE_MODELS_DIR      = "./models" // dlib shape predictor, resnet and mmod detector weights
	FACE_DETECT_CNN      = false      // Use Convolutional Neural Network for face detection (as opposed to HOG). Much slower, supposedly more accurate at different angles
	FACE_MATCH_THRESHOLD = 0.6        // Euclidean distance between descriptors below which two faces are the same person
	FACE_MAX_IMAGE_SIZE  = 0          // Longest image side (px) before detection, 0 disables downscaling
	PROCESSING_INTERVAL  = 30         // Seconds between background passes over new wedding photos
	// WhatsApp gateway (Twilio compatible REST API)
	WHATSAPP_API_URL     = "https://api.twilio.com/2010-04-01"
	WHATSAPP_ACCOUNT_SID = ""
	WHATSAPP_AUTH_TOKEN  = ""
	WHATSAPP_FROM        = "" // E.164 number enabled for WhatsApp, e.g. +14155238886
)

func init() {
	// .env is optional
	_ = godotenv.Load()
	Load()
}

// Load (re)reads all settings from the environment
func Load() {
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvString("PUBLIC_URL", &PUBLIC_URL)
	readEnvString("TMP_DIR", &TMP_DIR)
	readEnvString("DEFAULT_BUCKET_DIR", &DEFAULT_BUCKET_DIR)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvString("SESSION_KEY", &SESSION_KEY)
	readEnvBool("FACE_DETECT", &FACE_DETECT)
	readEnvString("FACE_MODELS_DIR", &FACE_MODELS_DIR)
	readEnvBool("FACE_DETECT_CNN", &FACE_DETECT_CNN)
	readEnvFloat("FACE_MATCH_THRESHOLD", &FACE_MATCH_THRESHOLD)
	readEnvInt("FACE_MAX_IMAGE_SIZE", &FACE_MAX_IMAGE_SIZE)
	readEnvInt("PROCESSING_INTERVAL", &PROCESSING_INTERVAL)
	readEnvString("WHATSAPP_API_URL", &WHATSAPP_API_URL)
	readEnvString("WHATSAPP_ACCOUNT_SID", &WHATSAPP_ACCOUNT_SID)
	readEnvString("WHATSAPP_AUTH_TOKEN", &WHATSAPP_AUTH_TOKEN)
	readEnvString("WHATSAPP_FROM", &WHATSAPP_FROM)
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvFloat(name string, value *float64) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return
	}
	*value = f
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = f
}
