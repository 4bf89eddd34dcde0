package log

import (
	"fmt"
	stdlog "log"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"graphDES/config"
)

var (
	logger  *stdlog.Logger
	logFile *os.File
	mu      sync.Mutex
)

// InitLog 初始化日志文件
// 初始化失败时退回到标准错误输出，模拟仍可继续
func InitLog(filename string) {
	mu.Lock()
	defer mu.Unlock()

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			stdlog.Printf("Failed to create log directory: %s", err)
			logger = stdlog.New(os.Stderr, "", stdlog.LstdFlags)
			return
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		stdlog.Printf("Failed to create log file: %s", err)
		logger = stdlog.New(os.Stderr, "", stdlog.LstdFlags)
		return
	}
	logFile = file
	logger = stdlog.New(file, "", stdlog.LstdFlags)
}

// WriteLog 写入一条日志
func WriteLog(msg string) {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		return
	}
	logger.Println(msg)
}

// CloseLog 关闭日志文件
func CloseLog() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	logger = nil
}

// LogEnvironment 记录运行环境信息
func LogEnvironment() {
	WriteLog(fmt.Sprintf("Go version: %s, OS: %s, Arch: %s, CPUs: %d",
		runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.NumCPU()))
}

// LogSimParameters 记录本次模拟的关键参数
func LogSimParameters(cfg *config.Config) {
	WriteLog(fmt.Sprintf("Seed: %d, SimDay: %d, OneDayMinutes: %.0f, UpdateInterval: %.1f, ProcessWindow: %.0f",
		cfg.Simulation.Seed, cfg.Simulation.SimDay, cfg.Simulation.OneDayMinutes,
		cfg.Simulation.UpdateInterval, cfg.Simulation.ProcessWindow))
	WriteLog(fmt.Sprintf("BaseCongestionRate: %.3f, DecayRate: %.3f, IncidentRate: %.3f, WeatherFactor: %.2f",
		cfg.Traffic.BaseCongestionRate, cfg.Traffic.CongestionDecayRate,
		cfg.Traffic.IncidentBaseRate, cfg.Traffic.WeatherFactor))
	WriteLog(fmt.Sprintf("RushHourMultiplier: %.2f, MorningRush: %d-%d, EveningRush: %d-%d",
		cfg.Traffic.RushHourMultiplier, cfg.Traffic.MorningRushStart, cfg.Traffic.MorningRushEnd,
		cfg.Traffic.EveningRushStart, cfg.Traffic.EveningRushEnd))
}

// ConvertSimTime 将一天内的模拟分钟数格式化为 HH:MM
func ConvertSimTime(minuteOfDay float64) string {
	m := int(minuteOfDay)
	return fmt.Sprintf("%02d:%02d", (m/60)%24, m%60)
}
