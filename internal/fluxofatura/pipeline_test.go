package fluxofatura

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KromaEnergia/portal-ofertas/internal/api"
	"github.com/KromaEnergia/portal-ofertas/internal/auth"
	"github.com/KromaEnergia/portal-ofertas/internal/sessao"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

var pdf = Arquivo{Nome: "fatura.pdf", Dados: []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")}

type mocks struct {
	backend  *MockBackend
	extrator *MockExtrator
	matcher  *MockMatcher
}

func novoPipeline(t *testing.T, role string, s sessao.Sessao) (*Pipeline, mocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := mocks{
		backend:  NewMockBackend(ctrl),
		extrator: NewMockExtrator(ctrl),
		matcher:  NewMockMatcher(ctrl),
	}
	v, err := VariantePara(role)
	require.NoError(t, err)
	p := Novo(v, sessao.NovaMemoria(s), Dependencias{Backend: m.backend, Extrator: m.extrator, Matcher: m.matcher}, zap.NewNop(), nil)
	return p, m
}

func sessaoAgente() sessao.Sessao {
	return sessao.Sessao{Token: "tok", Role: auth.RoleAgent, UserID: 7, GroupID: 3, Email: "a@x.com"}
}

func extraidos() map[string]any {
	return map[string]any{"provider": "X", "amount": 123.45, "id": "abc"}
}

func TestUpload_TipoInvalidoNaoChamaRede(t *testing.T) {
	p, _ := novoPipeline(t, auth.RoleAgent, sessaoAgente())

	_, err := p.Upload(context.Background(), Arquivo{Nome: "notas.txt", Dados: []byte("apenas texto")})

	assert.ErrorIs(t, err, ErrTipoArquivo)
	assert.Equal(t, EtapaUpload, p.Etapa())
}

func TestUpload_GeraFormularioComId(t *testing.T) {
	p, m := novoPipeline(t, auth.RoleAgent, sessaoAgente())
	campos := extraidos()
	campos["meter"] = map[string]any{"serial": "1"}
	campos["obs"] = nil

	m.backend.EXPECT().PlanoAtivo(gomock.Any()).Return(nil)
	m.extrator.EXPECT().Extrair(gomock.Any(), "fatura.pdf", pdf.Dados).Return(campos, nil)

	form, err := p.Upload(context.Background(), pdf)

	require.NoError(t, err)
	require.Len(t, form, 3)
	assert.Equal(t, "amount", form[0].Chave)
	assert.Equal(t, "123.45", form[0].Valor)
	assert.Equal(t, "id", form[1].Chave)
	assert.Equal(t, "provider", form[2].Chave)
	assert.Equal(t, EtapaVerificacao, p.Etapa())
}

func TestUpload_SegundoArquivoRecusado(t *testing.T) {
	p, m := novoPipeline(t, auth.RoleAgent, sessaoAgente())
	m.backend.EXPECT().PlanoAtivo(gomock.Any()).Return(nil)
	m.extrator.EXPECT().Extrair(gomock.Any(), gomock.Any(), gomock.Any()).Return(extraidos(), nil)

	_, err := p.Upload(context.Background(), pdf)
	require.NoError(t, err)

	_, err = p.Upload(context.Background(), pdf)
	assert.ErrorIs(t, err, ErrArquivoPendente)
}

func TestUpload_SemPlano(t *testing.T) {
	p, m := novoPipeline(t, auth.RoleAgent, sessaoAgente())
	m.backend.EXPECT().PlanoAtivo(gomock.Any()).
		Return(&api.HTTPError{Status: 402, Message: "No active plan"})

	_, err := p.Upload(context.Background(), pdf)

	assert.ErrorIs(t, err, ErrSemPlano)
	var he *api.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, 402, he.Status)
	assert.Equal(t, EtapaUpload, p.Etapa())
}

func TestUpload_FalhaNoOCRFicaNoUpload(t *testing.T) {
	p, m := novoPipeline(t, auth.RoleAgent, sessaoAgente())
	m.backend.EXPECT().PlanoAtivo(gomock.Any()).Return(nil)
	m.extrator.EXPECT().Extrair(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("ocr fora"))

	_, err := p.Upload(context.Background(), pdf)

	assert.EqualError(t, err, "ocr fora")
	assert.Equal(t, EtapaUpload, p.Etapa())

	// o arquivo foi descartado: um novo upload é aceito
	m.backend.EXPECT().PlanoAtivo(gomock.Any()).Return(nil)
	m.extrator.EXPECT().Extrair(gomock.Any(), gomock.Any(), gomock.Any()).Return(extraidos(), nil)
	_, err = p.Upload(context.Background(), pdf)
	assert.NoError(t, err)
}

func TestUpload_SemSessao(t *testing.T) {
	p, _ := novoPipeline(t, auth.RoleAgent, sessao.Sessao{})

	_, err := p.Upload(context.Background(), pdf)

	assert.ErrorIs(t, err, ErrSemSessao)
}

func emVerificacao(t *testing.T, role string, s sessao.Sessao) (*Pipeline, mocks) {
	t.Helper()
	p, m := novoPipeline(t, role, s)
	m.backend.EXPECT().PlanoAtivo(gomock.Any()).Return(nil)
	m.extrator.EXPECT().Extrair(gomock.Any(), gomock.Any(), gomock.Any()).Return(extraidos(), nil)
	_, err := p.Upload(context.Background(), pdf)
	require.NoError(t, err)
	return p, m
}

func TestSubmit_SemEdicaoRepassaCamposOriginais(t *testing.T) {
	p, m := emVerificacao(t, auth.RoleAgent, sessaoAgente())
	ofertas := []map[string]any{{"supplier": "A"}, {"supplier": "B"}}
	salvas := []map[string]any{{"id": 1.0, "supplier": "A"}, {"id": 2.0, "supplier": "B"}}

	gomock.InOrder(
		m.matcher.EXPECT().Ofertas(gomock.Any(), extraidos(), uint(3)).Return(ofertas, nil),
		m.backend.EXPECT().CriarFatura(gomock.Any(), "agent", map[string]any{
			"provider": "X", "amount": 123.45, "id": "abc", "group_id": uint(3),
		}).Return(uint(42), nil),
		m.backend.EXPECT().CriarOfertas(gomock.Any(), uint(42), uint(3), ofertas).Return(salvas, nil),
	)

	res, err := p.Submit(context.Background(), map[string]string{"provider": "X", "amount": "123.45", "id": "abc"})

	require.NoError(t, err)
	assert.Equal(t, uint(42), res.InvoiceID)
	assert.Len(t, res.Ofertas, 2)
	assert.Equal(t, EtapaOfertas, p.Etapa())

	e := p.Estado()
	assert.Equal(t, "offers", e.Etapa)
	assert.Equal(t, uint(42), e.InvoiceID)
}

func TestSubmit_CampoVazio(t *testing.T) {
	p, _ := emVerificacao(t, auth.RoleAgent, sessaoAgente())

	_, err := p.Submit(context.Background(), map[string]string{"provider": "   "})

	assert.ErrorIs(t, err, ErrCampoObrigatorio)
	assert.Contains(t, err.Error(), "Provider")
	assert.Equal(t, EtapaVerificacao, p.Etapa())
}

func TestSubmit_FalhaMantemVerificacao(t *testing.T) {
	falha := errors.New("boom")
	ofertas := []map[string]any{{"supplier": "A"}}

	casos := []struct {
		nome   string
		prepar func(m mocks)
	}{
		{"matching", func(m mocks) {
			m.matcher.EXPECT().Ofertas(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, falha)
		}},
		{"fatura", func(m mocks) {
			m.matcher.EXPECT().Ofertas(gomock.Any(), gomock.Any(), gomock.Any()).Return(ofertas, nil)
			m.backend.EXPECT().CriarFatura(gomock.Any(), gomock.Any(), gomock.Any()).Return(uint(0), falha)
		}},
		{"ofertas", func(m mocks) {
			m.matcher.EXPECT().Ofertas(gomock.Any(), gomock.Any(), gomock.Any()).Return(ofertas, nil)
			m.backend.EXPECT().CriarFatura(gomock.Any(), gomock.Any(), gomock.Any()).Return(uint(9), nil)
			m.backend.EXPECT().CriarOfertas(gomock.Any(), uint(9), gomock.Any(), ofertas).Return(nil, falha)
		}},
	}

	for _, c := range casos {
		t.Run(c.nome, func(t *testing.T) {
			p, m := emVerificacao(t, auth.RoleAgent, sessaoAgente())
			c.prepar(m)

			_, err := p.Submit(context.Background(), nil)

			assert.ErrorIs(t, err, falha)
			assert.Equal(t, EtapaVerificacao, p.Etapa())
		})
	}
}

func TestSubmit_ForaDaVerificacao(t *testing.T) {
	p, _ := novoPipeline(t, auth.RoleAgent, sessaoAgente())

	_, err := p.Submit(context.Background(), nil)

	assert.ErrorIs(t, err, ErrEtapa)
}

func TestSubmit_Variantes(t *testing.T) {
	casos := []struct {
		role     string
		sessao   sessao.Sessao
		segmento string
		grupo    uint
		appMode  any
	}{
		{auth.RoleClient, sessao.Sessao{Token: "t", Role: auth.RoleClient, UserID: 5, GroupID: 2}, "client", 2, "client"},
		{auth.RoleGroupAdmin, sessao.Sessao{Token: "t", Role: auth.RoleGroupAdmin, UserID: 8}, "group", 8, nil},
		{auth.RoleSupervisor, sessao.Sessao{Token: "t", Role: auth.RoleSupervisor, UserID: 4, GroupID: 8}, "supervisor", 8, nil},
	}

	for _, c := range casos {
		t.Run(c.role, func(t *testing.T) {
			p, m := emVerificacao(t, c.role, c.sessao)
			var enviado map[string]any

			m.matcher.EXPECT().Ofertas(gomock.Any(), gomock.Any(), c.grupo).Return([]map[string]any{}, nil)
			m.backend.EXPECT().CriarFatura(gomock.Any(), c.segmento, gomock.Any()).
				DoAndReturn(func(_ context.Context, _ string, campos map[string]any) (uint, error) {
					enviado = campos
					return 1, nil
				})
			m.backend.EXPECT().CriarOfertas(gomock.Any(), uint(1), c.grupo, gomock.Any()).Return(nil, nil)

			_, err := p.Submit(context.Background(), nil)
			require.NoError(t, err)

			assert.Equal(t, c.grupo, enviado["group_id"])
			assert.Equal(t, c.appMode, enviado["app_mode"])
		})
	}
}

func TestReset(t *testing.T) {
	p, _ := emVerificacao(t, auth.RoleAgent, sessaoAgente())

	p.Reset()

	assert.Equal(t, EtapaUpload, p.Etapa())
	assert.Empty(t, p.Estado().Campos)
}

func TestMesclarEdicoes_PreservaTipos(t *testing.T) {
	out, err := MesclarEdicoes(extraidos(), map[string]string{"provider": "Y", "amount": "123.45"})

	require.NoError(t, err)
	assert.Equal(t, "Y", out["provider"])
	assert.Equal(t, 123.45, out["amount"])
	assert.Equal(t, "abc", out["id"])
}

func TestRegistry(t *testing.T) {
	criados := 0
	r := NovoRegistry(func(s sessao.Sessao, store sessao.Store) (*Pipeline, error) {
		criados++
		v, err := VariantePara(s.Role)
		if err != nil {
			return nil, err
		}
		return Novo(v, store, Dependencias{}, zap.NewNop(), nil), nil
	}, time.Minute)

	s := sessaoAgente()
	p1, err := r.Obter(s)
	require.NoError(t, err)

	s.Token = "novo"
	p2, err := r.Obter(s)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, 1, criados)

	atual, ok := p2.store.Carregar()
	require.True(t, ok)
	assert.Equal(t, "novo", atual.Token)

	_, err = r.Obter(sessao.Sessao{Token: "t", Role: "admin", UserID: 99})
	assert.Error(t, err)

	assert.Equal(t, 0, r.Limpar())
	r.agora = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.Equal(t, 1, r.Limpar())
	assert.Equal(t, 0, r.Tamanho())
}
