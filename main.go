/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/killallgit/sermon-api/cmd"

// @title           Sermon Notes API
// @version         1.0.0
// @description     Transcribes sermon audio into bullet-point notes with scripture references
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /
// @schemes         http https
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Bearer token from /api/v1/auth/login or the token command
func main() {
	cmd.Execute()
}
