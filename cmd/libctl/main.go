// libctl 图书馆服务的运维和身份方工具
//
//	libctl migrate
//	libctl user create --name Alice --email alice@example.com --role admin
//	libctl token issue --user-id 1
//	libctl loans overdue
//	libctl events tail --key 'loan.*'
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
