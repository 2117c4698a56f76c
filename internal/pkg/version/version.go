// 版本信息，构建时通过 -ldflags 注入 BuildTime / GitCommit / GoVersion
// go build -ldflags "-X github.com/greenbone/gsa-sub043/internal/pkg/version.GitCommit=$(git rev-parse --short HEAD)"

package version

var (
	Version    = "0.3.0" // 版本号 -- 发布时候更新版本号
	APIVersion = "v1"
	BuildTime  string
	GitCommit  string
	GoVersion  string
)

func GetVersion() string {
	return Version
}

// GetUserAgent 请求 gsad 时使用的 User-Agent
func GetUserAgent() string {
	return "gsa-console/" + Version
}
