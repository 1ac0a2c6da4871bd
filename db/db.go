package db

import (
	"fmt"
	"time"

	"github.com/go-xorm/core"
	"github.com/go-xorm/xorm"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/nano/citypath/db/model"
)

var (
	database *xorm.Engine
	logger   = log.WithField("component", "db")
)

type MysqlCnf struct {
	UserName  string `json:"-"`
	Password  string `json:"-"`
	IpAddrees string
	Port      int
	DbName    string
}

func (m *MysqlCnf) GetDsn() string {
	var charset = "utf8mb4"
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true&loc=Local",
		m.UserName, m.Password, m.IpAddrees, m.Port, m.DbName, charset)
}

func configFromViper() *MysqlCnf {
	return &MysqlCnf{
		UserName:  viper.GetString("database.username"),
		Password:  viper.GetString("database.password"),
		IpAddrees: viper.GetString("database.host"),
		Port:      viper.GetInt("database.port"),
		DbName:    viper.GetString("database.dbname"),
	}
}

// Startup connects to the journal database configured under [database] and
// syncs its tables. The returned closer releases the connection pool.
func Startup() func() {
	cnf := configFromViper()
	engine, err := xorm.NewEngine("mysql", cnf.GetDsn())
	if err != nil {
		panic(err)
	}
	engine.SetMapper(core.GonicMapper{})
	engine.SetMaxIdleConns(viper.GetInt("database.max_idle_conns"))
	engine.SetMaxOpenConns(viper.GetInt("database.max_open_conns"))
	engine.SetConnMaxLifetime(time.Hour)
	engine.ShowSQL(viper.GetBool("database.show_sql"))
	if err := engine.Ping(); err != nil {
		panic(err)
	}
	if err := engine.Sync2(new(model.PathQuery)); err != nil {
		panic(err)
	}
	database = engine
	logger.Infof("database %s@%s:%d/%s ready", cnf.UserName, cnf.IpAddrees, cnf.Port, cnf.DbName)

	return func() {
		if err := database.Close(); err != nil {
			logger.Error(err)
		}
		database = nil
	}
}
