/*
 * @description: 控制台入口
 * @func: 执行 cobra 根命令
 */

package main

func main() {
	Execute()
}
