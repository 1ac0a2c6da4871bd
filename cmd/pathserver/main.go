package main

import (
	"fmt"
	"os"
	"runtime/pprof"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/gops/agent"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli"

	"github.com/nano/citypath/db"
	"github.com/nano/citypath/internal/editor"
	"github.com/nano/citypath/internal/game"
	"github.com/nano/citypath/internal/navigation"
	"github.com/nano/citypath/internal/web"
	"github.com/nano/citypath/pkg/async"
	"github.com/nano/citypath/pkg/env"
	"github.com/nano/citypath/pkg/fileutil"
	"github.com/nano/citypath/protocol"
)

func main() {
	app := cli.NewApp()

	// base application info
	app.Name = "path server"
	app.Version = "0.0.1"
	app.Usage = "grid path-planning service"

	// flags
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: "",
			Usage: "load configuration from `FILE`",
		},
		cli.BoolFlag{
			Name:  "cpuprofile",
			Usage: "enable cpu profile",
		},
	}

	app.Action = serve
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(c *cli.Context) error {
	cfgpth := c.String("config")
	if strings.TrimSpace(cfgpth) == "" {
		if !env.IsDevelopEnv() {
			panic("a configuration file must be given outside development")
		}
		cfgpth = fileutil.FindResourcePth("configs/config.toml")
		log.Println("using project config:", cfgpth)
	} else {
		log.Println("using config:", cfgpth)
	}
	if !fileutil.FileExists(cfgpth) {
		panic(fmt.Sprintf("config %s does not exist", cfgpth))
	}
	viper.SetConfigType("toml")
	viper.SetConfigFile(cfgpth)
	if err := viper.ReadInConfig(); err != nil {
		return err
	}

	log.SetFormatter(&log.TextFormatter{DisableColors: true})
	if viper.GetBool("core.debug") {
		log.SetLevel(log.DebugLevel)
	}

	if c.Bool("cpuprofile") {
		filename := fmt.Sprintf("cpuprofile-%d.pprof", time.Now().Unix())
		f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE, os.ModePerm)
		if err != nil {
			panic(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	async.Run(func() {
		// gops tool, local access only by default
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Errorf("gops agent: %v", err)
		}
	})

	cfg, err := finderConfig(viper.GetViper())
	if err != nil {
		return err
	}
	grid, err := loadGrid(viper.GetViper())
	if err != nil {
		return err
	}

	recorders := navigation.MultiRecorder{navigation.LogRecorder{}}
	if viper.GetBool("database.enable") {
		closer := db.Startup()
		defer closer()
		journal := db.NewJournal()
		defer journal.Close()
		recorders = append(recorders, journal)
	}
	cfg.Recorder = recorders

	ws, err := editor.NewWorkspace(grid, cfg, viper.GetInt("pathfinder.history_limit"))
	if err != nil {
		return err
	}
	defer ws.Close()
	log.Infof("path finder ready: %dx%d grid, %s mode, %d-way", grid.Rows(), grid.Cols(), cfg.Exec, cfg.Movement)

	var onGridChanged func(*protocol.GridResponse)
	wg := sync.WaitGroup{}
	if viper.GetBool("nano.enable") {
		ps := game.NewPathService(ws.Finder(), viper.GetDuration("nano.query_timeout"))
		onGridChanged = ps.GridChanged
		wg.Add(1)
		go func() {
			defer wg.Done()
			game.Startup(viper.GetString("nano.addr"), ps)
		}() // websocket服务
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		web.Startup(ws, onGridChanged)
	}() // 开启web服务器

	wg.Wait()
	return nil
}
