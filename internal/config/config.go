package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	Env         string
	AppSecret   string
	DatabaseURL string
	JWTExpiry   time.Duration
	Port        string
	SiteName    string
	SiteUrl     string

	// 上游影片接口
	OphimBaseURL string

	// VNPay 支付网关
	VnpTmnCode    string
	VnpHashSecret string
	VnpPayURL     string
	VnpReturnURL  string

	// Telegram 通知机器人
	TelegramBotToken string
	TelegramChatID   string
}

// Load 加载配置
func Load() *Config {
	expiryHours, _ := strconv.Atoi(getEnv("JWT_EXPIRY_HOURS", "72"))

	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "phimhub")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	appSecret := getEnv("APP_SECRET", getEnv("JWT_SECRET", "your-secret-key-change-in-production"))

	if getEnv("APP_ENV", "development") == "production" && appSecret == "your-secret-key-change-in-production" {
		fmt.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	siteUrl := getEnv("SITE_URL", "http://localhost:5008")

	return &Config{
		Env:         getEnv("APP_ENV", "development"),
		AppSecret:   appSecret,
		DatabaseURL: dbURL,
		JWTExpiry:   time.Duration(expiryHours) * time.Hour,
		Port:        getEnv("PORT", "5008"),
		SiteName:    getEnv("SITE_NAME", "PhimHub"),
		SiteUrl:     siteUrl,

		OphimBaseURL: getEnv("OPHIM_BASE_URL", "https://ophim1.com"),

		VnpTmnCode:    getEnv("VNP_TMN_CODE", ""),
		VnpHashSecret: getEnv("VNP_HASH_SECRET", ""),
		VnpPayURL:     getEnv("VNP_PAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
		VnpReturnURL:  getEnv("VNP_RETURN_URL", siteUrl+"/api/vip/return"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
