package config

import "strings"

// AppVersion is the version of the application, injected at build time.
var AppVersion string

// AppName is the name of the application.
const AppName = "Canvaz"

// AppID is the reverse-DNS identifier used to scope the preferences store.
const AppID = "io.github.dixieflatline76.canvaz"

// LogSubDir is the sub directory for the log files.
var LogSubDir = "." + strings.ToLower(AppName)

// LogExt is the extension for the log files.
var LogExt = ".log"

// LockName is the file name of the single-instance apply lock.
var LockName = strings.ToLower(AppName) + ".lock"

// CacheSubDir is the sub directory of the user cache dir that holds downloads.
var CacheSubDir = AppName
