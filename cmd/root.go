package cmd

import (
	"context"
	"fmt"
	u "net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tanq16/rccget/internal/output"
	"github.com/tanq16/rccget/internal/scheduler"
	"github.com/tanq16/rccget/internal/utils"
)

var (
	projectDir     string
	configFile     string
	timeout        time.Duration
	kaTimeout      time.Duration
	reportInterval time.Duration
	userAgent      string
	proxyURL       string
	proxyUsername  string
	proxyPassword  string
	s3Profile      string
	headers        []string
	retries        int
	strictLength   bool
	noExtract      bool
	debug          bool
	logFile        string
)

var RCCGetVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "rccget [URL] [SEGMENTS]",
	Short:   "rccget fetches a toolchain archive over parallel byte ranges and unpacks it",
	Version: RCCGetVersion,
	Args:    cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		closeLog := setupLogging()
		defer closeLog()

		var targetFile *utils.TargetFile
		if configFile != "" {
			tf, err := utils.ReadTargetFile(configFile)
			if err != nil {
				output.PrintError(fmt.Sprintf("Failed to read config file: %v", err))
				os.Exit(1)
			}
			targetFile = tf
		}
		target, err := utils.ResolveTarget(args, targetFile)
		if err != nil {
			output.PrintError(err.Error())
			os.Exit(1)
		}
		job := buildJob(cmd, target, targetFile)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err = scheduler.Run(ctx, job)
		stop()
		if err != nil {
			output.PrintError(fmt.Sprintf("Provisioning from '%s' failed: %v", target.URL, err))
			closeLog()
			os.Exit(1)
		}
		output.PrintSuccess(fmt.Sprintf("Provisioning from '%s' complete", target.URL))
	},
}

func buildJob(cmd *cobra.Command, target utils.Target, tf *utils.TargetFile) utils.FetchJob {
	headerMap := map[string]string{}
	if tf != nil {
		for k, v := range tf.Headers {
			headerMap[k] = v
		}
		if tf.ProjectDir != "" && !cmd.Flags().Changed("project-dir") {
			projectDir = tf.ProjectDir
		}
		if tf.UserAgent != "" && !cmd.Flags().Changed("user-agent") {
			userAgent = tf.UserAgent
		}
		if tf.Retries > 0 && !cmd.Flags().Changed("retries") {
			retries = tf.Retries
		}
		if tf.Strict && !cmd.Flags().Changed("strict") {
			strictLength = true
		}
	}
	for k, v := range utils.ParseHeaderArgs(headers) {
		headerMap[k] = v
	}
	if userAgent == "randomize" {
		userAgent = utils.GetRandomUserAgent()
	}
	// Move proxy credentials out of the URL
	parsedProxy, err := u.Parse(proxyURL)
	if err == nil && parsedProxy.User != nil && proxyUsername == "" {
		proxyUsername = parsedProxy.User.Username()
		if password, set := parsedProxy.User.Password(); set {
			proxyPassword = password
		}
		parsedProxy.User = nil
		proxyURL = parsedProxy.String()
	}
	return utils.FetchJob{
		Target:         target,
		ProjectDir:     projectDir,
		Retries:        retries,
		StrictLength:   strictLength,
		SkipExtract:    noExtract,
		ReportInterval: reportInterval,
		S3Profile:      s3Profile,
		HTTPClientConfig: utils.HTTPClientConfig{
			Timeout:       timeout,
			KATimeout:     kaTimeout,
			ProxyURL:      proxyURL,
			ProxyUsername: proxyUsername,
			ProxyPassword: proxyPassword,
			UserAgent:     userAgent,
			Headers:       headerMap,
		},
	}
}

func setupLogging() func() {
	utils.InitLogger(debug)
	if logFile == "" {
		return func() {}
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		output.PrintWarning(fmt.Sprintf("Could not open log file %s, logging to stderr", logFile))
		return func() {}
	}
	utils.SetLogOutput(f)
	return func() { f.Close() }
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&projectDir, "project-dir", "d", ".", "Project root; the archive is unpacked into <project-dir>/rcc")
	rootCmd.Flags().StringVarP(&configFile, "config", "f", "", "Path to YAML file with url, segments and request options")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 3*time.Minute, "Connection timeout (eg. 5s, 10m)")
	rootCmd.Flags().DurationVarP(&kaTimeout, "keep-alive-timeout", "k", 90*time.Second, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	rootCmd.Flags().DurationVar(&reportInterval, "interval", utils.DefaultReportInterval, "Interval between progress updates")
	rootCmd.Flags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent ('randomize' picks a browser agent)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.Flags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.Flags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.Flags().StringVar(&s3Profile, "s3-profile", "", "AWS shared config profile for s3:// sources")
	rootCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")
	rootCmd.Flags().IntVar(&retries, "retries", 1, "Attempts per segment before the job fails (1 disables retrying)")
	rootCmd.Flags().BoolVar(&strictLength, "strict", false, "Fail a segment whose byte count does not match its range")
	rootCmd.Flags().BoolVar(&noExtract, "no-extract", false, "Stop after the archive has been assembled")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(newCleanCmd())
}
