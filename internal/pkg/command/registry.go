package command

import (
	"fmt"
	"sort"
	"sync"
)

// Registry 资源注册中心
// 启动时显式创建并传递给调用方，没有全局实例
type Registry struct {
	transport Transport
	resources map[string]Resource
	plurals   map[string]string // 复数名 -> 资源名
	mu        sync.RWMutex
}

// NewRegistry 创建注册中心，所有命令共用同一个传输层
func NewRegistry(t Transport) *Registry {
	return &Registry{
		transport: t,
		resources: make(map[string]Resource),
		plurals:   make(map[string]string),
	}
}

// Register 注册资源，同名资源被替换
func (r *Registry) Register(res Resource) error {
	res, err := res.withDefaults()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.resources[res.Name]; exists {
		delete(r.plurals, old.Plural)
	}
	r.resources[res.Name] = res
	r.plurals[res.Plural] = res.Name
	return nil
}

// MustRegister 注册资源，失败则panic
func (r *Registry) MustRegister(resources ...Resource) *Registry {
	for _, res := range resources {
		if err := r.Register(res); err != nil {
			panic(fmt.Sprintf("register resource %q: %v", res.Name, err))
		}
	}
	return r
}

// Lookup 按资源名或复数名查找资源
func (r *Registry) Lookup(name string) (Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if res, ok := r.resources[name]; ok {
		return res, nil
	}
	if singular, ok := r.plurals[name]; ok {
		return r.resources[singular], nil
	}
	return Resource{}, fmt.Errorf("%w: %s", ErrUnknownResource, name)
}

// Entity 获取资源的单数命令
func (r *Registry) Entity(name string) (*EntityCommand, error) {
	res, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return &EntityCommand{base{resource: res, transport: r.transport}}, nil
}

// Collection 获取资源的复数命令
func (r *Registry) Collection(name string) (*CollectionCommand, error) {
	res, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return &CollectionCommand{base{resource: res, transport: r.transport}}, nil
}

// Resources 所有已注册的资源，按名称排序
func (r *Registry) Resources() []Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Resource, 0, len(r.resources))
	for _, res := range r.resources {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
